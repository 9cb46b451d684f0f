package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/models"
)

func newOrderService(t *testing.T) (*OrderService, *events.Hub) {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()
	hub := events.NewHub(8)
	sessions := NewSessionService(db, cfg)
	return NewOrderService(db, cfg, sessions, hub), hub
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newOrderService(t)
	item := seedMenuItem(t, svc.db, "Latte", 450)

	_, err := svc.CreateOrder("T1", nil, "")
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: item.ID, Quantity: 0}}, "")
	assert.ErrorIs(t, err, ErrInvalidItems)

	_, err = svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: 999, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalidItems)

	// Inactive items are as invalid as missing ones.
	require.NoError(t, svc.db.Model(&models.MenuItem{}).
		Where("id = ?", item.ID).
		Update("is_active", false).Error)
	_, err = svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: item.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalidItems)
}

func TestCreateOrderNumbersAndTotals(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)
	cake := seedMenuItem(t, svc.db, "Cake", 1200)

	first, err := svc.CreateOrder("T1", []OrderItemRequest{
		{MenuItemID: latte.ID, Quantity: 2},
		{MenuItemID: cake.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.OrderNumber)
	assert.Equal(t, int64(2100), first.TotalCents)
	assert.Equal(t, models.OrderStatusNew, first.Status)
	require.Len(t, first.Items, 2)
	assert.Equal(t, int64(450), first.Items[0].UnitPriceCents)
	assert.Equal(t, int64(900), first.Items[0].TotalCents)

	second, err := svc.CreateOrder("T2", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, second.OrderNumber)
	assert.Equal(t, first.OrderDateKey, second.OrderDateKey)

	var counter models.OrderDailyCounter
	require.NoError(t, svc.db.First(&counter, "date_key = ?", first.OrderDateKey).Error)
	assert.Equal(t, 2, counter.NextNumber)
}

func TestCreateOrderPriceSnapshot(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	require.NoError(t, svc.db.Model(&models.MenuItem{}).
		Where("id = ?", latte.ID).
		Update("price_cents", 999).Error)

	reloaded, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(450), reloaded.Items[0].UnitPriceCents)
	assert.Equal(t, int64(450), reloaded.TotalCents)
}

func TestCreateOrderIdempotencyReplay(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	first, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "key-1")
	require.NoError(t, err)

	replay, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, first.OrderNumber, replay.OrderNumber)

	var total int64
	require.NoError(t, svc.db.Model(&models.Order{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)

	// Different key produces a new order and advances the counter.
	other, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "key-2")
	require.NoError(t, err)
	assert.Equal(t, 2, other.OrderNumber)
}

func TestCreateOrderPublishesEvent(t *testing.T) {
	svc, hub := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	sub := hub.Subscribe(events.TypeOrderCreated)
	defer sub.Close()

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 2}}, "")
	require.NoError(t, err)

	select {
	case evt := <-sub.C():
		data, ok := evt.Data.(events.OrderCreatedData)
		require.True(t, ok)
		assert.Equal(t, order.ID, data.ID)
		assert.Equal(t, "T1", data.TableCode)
		require.Len(t, data.Items, 1)
		assert.Equal(t, "Latte", data.Items[0].Name)
		assert.Equal(t, 2, data.Items[0].Quantity)
	case <-time.After(time.Second):
		t.Fatal("expected an order.created event")
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, hub := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	sub := hub.Subscribe(events.TypeOrderStatusChanged)
	defer sub.Close()

	updated, err := svc.UpdateStatus(order.ID, models.OrderStatusInProgress, "", testActor())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, updated.Status)

	select {
	case evt := <-sub.C():
		data, ok := evt.Data.(events.OrderStatusChangedData)
		require.True(t, ok)
		assert.Equal(t, models.OrderStatusNew, data.OldStatus)
		assert.Equal(t, models.OrderStatusInProgress, data.NewStatus)
	case <-time.After(time.Second):
		t.Fatal("expected an order.status_changed event")
	}

	var audits []models.AuditLog
	require.NoError(t, svc.db.Where("action = ?", models.AuditOrderStatusChange).Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, "Order", audits[0].EntityType)
}

func TestUpdateStatusRejectsTerminal(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, models.OrderStatusCanceled, "customer left", testActor())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, models.OrderStatusNew, "", testActor())
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestCloseOrderForcesDone(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	closed, err := svc.CloseOrder(order.ID, 450, "CASH", testActor())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDone, closed.Status)

	var audit models.AuditLog
	require.NoError(t, svc.db.Where("action = ?", models.AuditOrderClosed).First(&audit).Error)
	assert.Contains(t, audit.Metadata, "paid_cents")
	assert.Contains(t, audit.Metadata, "CASH")
}

func TestArchiveOrderHidesIt(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	_, err = svc.ArchiveOrder(order.ID, testActor())
	require.NoError(t, err)

	_, err = svc.GetOrder(order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	orders, err := svc.ListOrders(OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = svc.ArchiveOrder(order.ID, testActor())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublicStatusRequiresMatchingTable(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	status, err := svc.PublicStatus(order.ID, "T1")
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, status.OrderNumber)

	_, err = svc.PublicStatus(order.ID, "T2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryAndTopItems(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)
	cake := seedMenuItem(t, svc.db, "Cake", 1200)

	_, err := svc.CreateOrder("T1", []OrderItemRequest{
		{MenuItemID: latte.ID, Quantity: 3},
	}, "")
	require.NoError(t, err)
	_, err = svc.CreateOrder("T2", []OrderItemRequest{
		{MenuItemID: cake.ID, Quantity: 2},
	}, "")
	require.NoError(t, err)

	summary, err := svc.Summary(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.OrdersCount)
	assert.Equal(t, int64(3750), summary.TotalCents)
	require.Len(t, summary.Daily, 1)
	assert.Equal(t, time.Now().Format("2006-01-02"), summary.Daily[0].Date)

	top, err := svc.TopItems(nil, nil, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Cake", top[0].Name)
	assert.Equal(t, int64(2400), top[0].TotalCents)
	assert.Equal(t, "Latte", top[1].Name)
	assert.Equal(t, int64(1350), top[1].TotalCents)
}

func TestAuditServiceFilters(t *testing.T) {
	svc, _ := newOrderService(t)
	latte := seedMenuItem(t, svc.db, "Latte", 450)
	audits := NewAuditService(svc.db)

	order, err := svc.CreateOrder("T1", []OrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}}, "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(order.ID, models.OrderStatusInProgress, "", testActor())
	require.NoError(t, err)
	_, err = svc.CloseOrder(order.ID, 450, "CARD", testActor())
	require.NoError(t, err)

	all, err := audits.List(AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Newest first.
	assert.Equal(t, models.AuditOrderClosed, all[0].Action)

	closedOnly, err := audits.List(AuditFilter{Action: models.AuditOrderClosed})
	require.NoError(t, err)
	assert.Len(t, closedOnly, 1)

	none, err := audits.List(AuditFilter{EntityType: "Reservation"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
