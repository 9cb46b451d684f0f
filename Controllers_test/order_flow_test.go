package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedMenu creates one category with one item through the admin API and
// returns the item id.
func seedMenu(t *testing.T, app *testApp, adminToken string) uint {
	t.Helper()

	w, resp := app.do(t, http.MethodPost, "/admin/menu/categories", adminToken, gin.H{
		"name": "Drinks",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	categoryID := dataOf(t, resp)["id"].(float64)

	w, resp = app.do(t, http.MethodPost, "/admin/menu/items", adminToken, gin.H{
		"category_id": categoryID,
		"name":        "Latte",
		"price_cents": 450,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return uint(dataOf(t, resp)["id"].(float64))
}

func TestGuestOrderLifecycle(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.register(t, "owner@example.com")
	itemID := seedMenu(t, app, adminToken)

	// Scan opens a session for the table.
	w, resp := app.do(t, http.MethodGet, "/qr/T1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, dataOf(t, resp)["session_key"])

	// Guest submits an order.
	w, resp = app.do(t, http.MethodPost, "/orders", "", gin.H{
		"table_code":      "T1",
		"idempotency_key": "abc-123",
		"items": []gin.H{
			{"menu_item_id": itemID, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	order := dataOf(t, resp)
	orderID := uint(order["id"].(float64))
	assert.Equal(t, float64(1), order["order_number"])
	assert.Equal(t, float64(900), order["total_cents"])
	assert.Equal(t, "NEW", order["status"])

	// Retrying the same submission returns the same order.
	w, resp = app.do(t, http.MethodPost, "/orders", "", gin.H{
		"table_code":      "T1",
		"idempotency_key": "abc-123",
		"items": []gin.H{
			{"menu_item_id": itemID, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, order["id"], dataOf(t, resp)["id"])

	// Staff sees it and moves it along.
	w, resp = app.do(t, http.MethodGet, "/staff/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := resp["data"].([]interface{})
	require.Len(t, orders, 1)

	path := fmt.Sprintf("/staff/orders/%d/status", orderID)
	w, resp = app.do(t, http.MethodPatch, path, adminToken, gin.H{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN_PROGRESS", dataOf(t, resp)["status"])

	// Guest polls status with the table code.
	statusPath := fmt.Sprintf("/orders/%d/status?table_code=T1", orderID)
	w, resp = app.do(t, http.MethodGet, statusPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN_PROGRESS", dataOf(t, resp)["status"])

	// The wrong table code reveals nothing.
	w, _ = app.do(t, http.MethodGet, fmt.Sprintf("/orders/%d/status?table_code=T9", orderID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Close settles the order.
	w, resp = app.do(t, http.MethodPost, fmt.Sprintf("/staff/orders/%d/close", orderID), adminToken, gin.H{
		"paid_cents":     900,
		"payment_method": "CASH",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DONE", dataOf(t, resp)["status"])

	// Terminal orders cannot transition again.
	w, _ = app.do(t, http.MethodPatch, path, adminToken, gin.H{"status": "NEW"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Archive removes it from the listings.
	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/admin/orders/%d", orderID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = app.do(t, http.MethodGet, "/staff/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["data"])

	// The audit trail survives archiving.
	w, resp = app.do(t, http.MethodGet, "/admin/audit-logs?entity_type=Order", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := resp["data"].([]interface{})
	assert.Len(t, logs, 3)
}

func TestOrderRejectsUnknownItems(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"table_code": "T1",
		"items": []gin.H{
			{"menu_item_id": 42, "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPost, "/orders", "", gin.H{
		"table_code": "T1",
		"items":      []gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
