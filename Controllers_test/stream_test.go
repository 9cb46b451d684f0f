package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame wsFrame
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func TestStaffStreamReceivesOrderEvents(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.register(t, "owner@example.com")
	itemID := seedMenu(t, app, adminToken)

	srv := httptest.NewServer(app.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws/staff?token="+adminToken, nil)
	require.NoError(t, err)
	defer conn.Close()

	w, resp := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"table_code": "T1",
		"items":      []gin.H{{"menu_item_id": itemID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := dataOf(t, resp)["id"].(float64)

	frame := readFrame(t, conn)
	assert.Equal(t, "order.created", frame.Event)
	assert.Equal(t, orderID, frame.Data["id"])
	assert.Equal(t, "T1", frame.Data["table_code"])

	path := fmt.Sprintf("/staff/orders/%d/status", int(orderID))
	w, _ = app.do(t, http.MethodPatch, path, adminToken, gin.H{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code)

	frame = readFrame(t, conn)
	assert.Equal(t, "order.status_changed", frame.Event)
	assert.Equal(t, "NEW", frame.Data["old_status"])
	assert.Equal(t, "IN_PROGRESS", frame.Data["new_status"])
}

func TestStaffStreamRequiresStaffToken(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "owner@example.com")
	gamerToken := app.register(t, "player@example.com")

	srv := httptest.NewServer(app.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws/staff", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"/ws/staff?token="+gamerToken, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGuestOrderStreamSnapshotAndUpdates(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.register(t, "owner@example.com")
	itemID := seedMenu(t, app, adminToken)

	w, resp := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"table_code": "T1",
		"items":      []gin.H{{"menu_item_id": itemID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(dataOf(t, resp)["id"].(float64))

	srv := httptest.NewServer(app.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	// The wrong table code is rejected before the upgrade.
	_, httpResp, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("%s/ws/orders/%d?table_code=T9", wsURL, orderID), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httpResp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("%s/ws/orders/%d?table_code=T1", wsURL, orderID), nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame is the current status snapshot.
	frame := readFrame(t, conn)
	assert.Equal(t, "order.status", frame.Event)
	assert.Equal(t, "NEW", frame.Data["status"])

	path := fmt.Sprintf("/staff/orders/%d/status", orderID)
	w, _ = app.do(t, http.MethodPatch, path, adminToken, gin.H{"status": "DONE"})
	require.Equal(t, http.StatusOK, w.Code)

	frame = readFrame(t, conn)
	assert.Equal(t, "order.status", frame.Event)
	assert.Equal(t, "DONE", frame.Data["status"])
}
