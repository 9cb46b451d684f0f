package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// OrderService owns order intake (idempotency, pricing, daily
// numbering) and the status machine with its audit trail.
type OrderService struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *SessionService
	hub      *events.Hub
	dayLocks keyMutex
}

func NewOrderService(db *gorm.DB, cfg *config.Config, sessions *SessionService, hub *events.Hub) *OrderService {
	return &OrderService{db: db, cfg: cfg, sessions: sessions, hub: hub}
}

type OrderItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

// CreateOrder validates, prices and numbers a new order. Replaying an
// idempotency key returns the original order with no new side effects.
// The daily counter increment and the order insert share a transaction,
// serialized per calendar day, so concurrent submissions on the same
// day get strictly increasing, gap-free numbers.
func (s *OrderService) CreateOrder(tableCode string, items []OrderItemRequest, idempotencyKey string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidItems
		}
	}

	if idempotencyKey != "" {
		if existing, err := s.findByIdempotencyKey(idempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil
		}
	}

	session, err := s.sessions.ResolveSession(tableCode)
	if err != nil {
		return nil, err
	}

	distinct := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if _, seen := distinct[item.MenuItemID]; !seen {
			distinct[item.MenuItemID] = struct{}{}
			ids = append(ids, item.MenuItemID)
		}
	}

	var menuItems []models.MenuItem
	if err := s.db.Where("id IN ? AND is_active = ?", ids, true).Find(&menuItems).Error; err != nil {
		return nil, err
	}
	if len(menuItems) < len(ids) {
		return nil, ErrInvalidItems
	}
	itemsByID := make(map[uint]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		itemsByID[m.ID] = m
	}

	var total int64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		menuItem := itemsByID[item.MenuItemID]
		lineTotal := menuItem.PriceCents * int64(item.Quantity)
		total += lineTotal
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:     menuItem.ID,
			Quantity:       item.Quantity,
			UnitPriceCents: menuItem.PriceCents,
			TotalCents:     lineTotal,
		})
	}

	dateKey := time.Now().Format("2006-01-02")
	var keyPtr *string
	if idempotencyKey != "" {
		keyPtr = &idempotencyKey
	}

	unlock := s.dayLocks.Lock(dateKey)
	order := models.Order{
		TableSessionID: session.ID,
		Status:         models.OrderStatusNew,
		TotalCents:     total,
		OrderDateKey:   dateKey,
		IdempotencyKey: keyPtr,
		Items:          orderItems,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var counter models.OrderDailyCounter
		err := tx.Where("date_key = ?", dateKey).First(&counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = models.OrderDailyCounter{DateKey: dateKey, NextNumber: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			counter.NextNumber++
			if err := tx.Save(&counter).Error; err != nil {
				return err
			}
		}

		order.OrderNumber = counter.NextNumber
		return tx.Create(&order).Error
	})
	unlock()
	if err != nil {
		// A concurrent retry with the same key may have won the unique
		// index race; the replay path is still a success.
		if idempotencyKey != "" {
			if existing, lookupErr := s.findByIdempotencyKey(idempotencyKey); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	if err := s.sessions.Touch(session.ID); err != nil {
		utils.ErrorLogger.Errorf("failed to touch session %d after order %d: %v", session.ID, order.ID, err)
	}

	summaries := make([]events.OrderItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		summaries = append(summaries, events.OrderItemSummary{
			ID:       item.ID,
			Name:     itemsByID[item.MenuItemID].Name,
			Quantity: item.Quantity,
		})
	}
	s.hub.Publish(events.Event{
		Type: events.TypeOrderCreated,
		Data: events.OrderCreatedData{
			ID:          order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			TotalCents:  order.TotalCents,
			TableCode:   session.Table.Code,
			CreatedAt:   order.CreatedAt,
			Items:       summaries,
		},
	})

	utils.InfoLogger.Printf("Order %d created (#%d on %s, total %s)",
		order.ID, order.OrderNumber, order.OrderDateKey, utils.FormatCents(order.TotalCents))

	order.TableSession = *session
	return &order, nil
}

func (s *OrderService) findByIdempotencyKey(key string) (*models.Order, error) {
	var existing models.Order
	err := s.db.Preload("Items").Preload("Items.MenuItem").
		Preload("TableSession").Preload("TableSession.Table").
		Where("idempotency_key = ?", key).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// ListOrders returns non-archived orders, newest first.
func (s *OrderService) ListOrders(filter OrderFilter) ([]models.Order, error) {
	q := s.db.Preload("Items").Preload("Items.MenuItem").
		Preload("TableSession").Preload("TableSession.Table").
		Where("deleted_at IS NULL")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder loads a non-archived order by id.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Items.MenuItem").
		Preload("TableSession").Preload("TableSession.Table").
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &order, nil
}

// UpdateStatus applies a status transition, records the audit entry and
// publishes order.status_changed. Transitions out of DONE or CANCELED
// are rejected.
func (s *OrderService) UpdateStatus(orderID uint, status, reason string, actor *Actor) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if models.TerminalOrderStatus(order.Status) {
		return nil, ErrTerminalStatus
	}

	oldStatus := order.Status
	if err := s.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status
	order.UpdatedAt = time.Now()

	meta := map[string]interface{}{
		"old_status": oldStatus,
		"new_status": status,
	}
	if reason != "" {
		meta["reason"] = reason
	}
	writeAudit(s.db, actor, models.AuditOrderStatusChange, "Order", order.ID, meta)

	s.publishStatusChanged(order.ID, oldStatus, status, order.UpdatedAt)
	return order, nil
}

// CloseOrder forces the order to DONE and records the payment amount
// and method in the audit metadata only.
func (s *OrderService) CloseOrder(orderID uint, paidCents int64, paymentMethod string, actor *Actor) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if err := s.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", models.OrderStatusDone).Error; err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusDone
	order.UpdatedAt = time.Now()

	writeAudit(s.db, actor, models.AuditOrderClosed, "Order", order.ID, map[string]interface{}{
		"paid_cents":     paidCents,
		"payment_method": paymentMethod,
	})

	s.publishStatusChanged(order.ID, oldStatus, order.Status, order.UpdatedAt)
	return order, nil
}

// ArchiveOrder soft-deletes the order. Archived orders drop out of the
// default listings; their audit trail stays put.
func (s *OrderService) ArchiveOrder(orderID uint, actor *Actor) (*time.Time, error) {
	now := time.Now()
	result := s.db.Model(&models.Order{}).
		Where("id = ? AND deleted_at IS NULL", orderID).
		Update("deleted_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	writeAudit(s.db, actor, models.AuditOrderArchived, "Order", orderID, nil)
	return &now, nil
}

// PublicOrderStatus is the guest-visible projection of an order,
// reachable only with the matching table code.
type PublicOrderStatus struct {
	ID          uint      `json:"id"`
	OrderNumber int       `json:"order_number"`
	Status      string    `json:"status"`
	TotalCents  int64     `json:"total_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicStatus scopes the lookup by table code; a mismatch is
// indistinguishable from a missing order.
func (s *OrderService) PublicStatus(orderID uint, tableCode string) (*PublicOrderStatus, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.TableSession.Table.Code != tableCode {
		return nil, ErrNotFound
	}
	return &PublicOrderStatus{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalCents:  order.TotalCents,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, nil
}

// DailySales is one day of the revenue summary.
type DailySales struct {
	Date        string `json:"date"`
	TotalCents  int64  `json:"total_cents"`
	OrdersCount int64  `json:"orders_count"`
}

// SalesSummary aggregates non-archived orders.
type SalesSummary struct {
	TotalCents  int64        `json:"total_cents"`
	OrdersCount int64        `json:"orders_count"`
	Daily       []DailySales `json:"daily"`
}

// Summary totals revenue and order counts per day.
func (s *OrderService) Summary(from, to *time.Time) (*SalesSummary, error) {
	q := s.db.Model(&models.Order{}).
		Select("order_date_key as date, SUM(total_cents) as total_cents, COUNT(*) as orders_count").
		Where("deleted_at IS NULL")
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	var daily []DailySales
	if err := q.Group("order_date_key").Order("order_date_key asc").Scan(&daily).Error; err != nil {
		return nil, err
	}

	summary := &SalesSummary{Daily: daily}
	for _, day := range daily {
		summary.TotalCents += day.TotalCents
		summary.OrdersCount += day.OrdersCount
	}
	return summary, nil
}

// TopItem is one row of the best-sellers aggregation.
type TopItem struct {
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	TotalCents int64  `json:"total_cents"`
}

// TopItems ranks menu items by revenue over non-archived orders.
func (s *OrderService) TopItems(from, to *time.Time, limit int) ([]TopItem, error) {
	if limit <= 0 {
		limit = 5
	}

	q := s.db.Model(&models.OrderItem{}).
		Select("order_items.menu_item_id, menu_items.name, SUM(order_items.quantity) as quantity, SUM(order_items.total_cents) as total_cents").
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id")
	if from != nil {
		q = q.Where("orders.created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("orders.created_at <= ?", *to)
	}

	var rows []TopItem
	if err := q.Group("order_items.menu_item_id, menu_items.name").
		Order("total_cents desc").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *OrderService) publishStatusChanged(orderID uint, oldStatus, newStatus string, updatedAt time.Time) {
	s.hub.Publish(events.Event{
		Type: events.TypeOrderStatusChanged,
		Data: events.OrderStatusChangedData{
			ID:        orderID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			UpdatedAt: updatedAt,
		},
	})
}
