package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder is the public intake endpoint for the QR flow. Retries
// with the same idempotency key return the original order.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		TableCode      string                      `json:"table_code" binding:"required"`
		Items          []services.OrderItemRequest `json:"items"`
		IdempotencyKey string                      `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(req.TableCode, req.Items, req.IdempotencyKey)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders lists non-archived orders for staff, optionally filtered
// by status and created-at range.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}

	orders, err := oc.Orders.ListOrders(services.OrderFilter{
		Status: c.Query("status"),
		From:   from,
		To:     to,
	})
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetPublicStatus lets a guest check one order, scoped by table code.
func (oc *OrderController) GetPublicStatus(c *gin.Context) {
	orderID, ok := parseUintParam(c, "order_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	status, err := oc.Orders.PublicStatus(orderID, c.Query("table_code"))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status", status)
}

// UpdateStatus applies a staff status transition.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	orderID, ok := parseUintParam(c, "order_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=NEW IN_PROGRESS DONE CANCELED"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(orderID, req.Status, req.Reason, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// Close marks the order DONE and records the payment amount and method
// in the audit metadata.
func (oc *OrderController) Close(c *gin.Context) {
	orderID, ok := parseUintParam(c, "order_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var req struct {
		PaidCents     int64  `json:"paid_cents" binding:"required"`
		PaymentMethod string `json:"payment_method" binding:"required,oneof=CASH CARD MIXED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CloseOrder(orderID, req.PaidCents, req.PaymentMethod, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order closed", order)
}

// Archive soft-deletes the order (admin only).
func (oc *OrderController) Archive(c *gin.Context) {
	orderID, ok := parseUintParam(c, "order_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	archivedAt, err := oc.Orders.ArchiveOrder(orderID, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order archived", gin.H{
		"order_id":    orderID,
		"archived_at": archivedAt,
	})
}

// Summary returns per-day revenue totals (admin).
func (oc *OrderController) Summary(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}

	summary, err := oc.Orders.Summary(from, to)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales summary", summary)
}

// TopItems returns the best sellers (admin).
func (oc *OrderController) TopItems(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	items, err := oc.Orders.TopItems(from, to, limit)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Top items", items)
}
