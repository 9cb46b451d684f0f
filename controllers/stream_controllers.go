package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

const (
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamController serves live order events over websocket. Staff get
// the full feed; guests get status updates for a single order.
type StreamController struct {
	Hub    *events.Hub
	Orders *services.OrderService
}

func NewStreamController(hub *events.Hub, orders *services.OrderService) *StreamController {
	return &StreamController{Hub: hub, Orders: orders}
}

// StaffStream pushes order.created and order.status_changed events
// plus a ping every 30 seconds so clients can detect a dead link.
func (sc *StreamController) StaffStream(c *gin.Context) {
	// Subscribe before the upgrade handshake completes, so an event
	// published right after the client connects is never missed.
	sub := sc.Hub.Subscribe(events.TypeOrderCreated, events.TypeOrderStatusChanged)
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sc.pump(conn, sub, nil)
}

// OrderStream is the guest stream for a single order. The table code
// must match the order, the same check the polling endpoint does. The
// first frame is an order.status snapshot so a reconnecting client
// never misses a transition that happened while it was away.
func (sc *StreamController) OrderStream(c *gin.Context) {
	orderID, ok := parseUintParam(c, "order_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	tableCode := c.Query("table_code")
	if tableCode == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("table_code is required"))
		return
	}

	// Subscribe first, then snapshot: a transition landing between the
	// two shows up in the snapshot and again as an update, never lost.
	sub := sc.Hub.Subscribe(events.TypeOrderStatusChanged)
	defer sub.Close()

	status, err := sc.Orders.PublicStatus(orderID, tableCode)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshot := events.Event{Type: events.TypeOrderStatus, Data: events.OrderStatusData{
		ID:        status.ID,
		Status:    status.Status,
		UpdatedAt: status.UpdatedAt,
	}}
	if err := writeEvent(conn, snapshot); err != nil {
		return
	}

	// Narrow the staff event to the guest projection for this order.
	translate := func(ev events.Event) (events.Event, bool) {
		data, ok := ev.Data.(events.OrderStatusChangedData)
		if !ok || data.ID != orderID {
			return events.Event{}, false
		}
		return events.Event{Type: events.TypeOrderStatus, Data: events.OrderStatusData{
			ID:        data.ID,
			Status:    data.NewStatus,
			UpdatedAt: data.UpdatedAt,
		}}, true
	}

	sc.pump(conn, sub, translate)
}

// pump writes subscriber events and heartbeats until either side goes
// away. A reader goroutine drains the connection so close frames and
// network errors are noticed even though clients never send data.
func (sc *StreamController) pump(conn *websocket.Conn, sub *events.Subscriber, translate func(events.Event) (events.Event, bool)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if translate != nil {
				ev, ok = translate(ev)
				if !ok {
					continue
				}
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := writeEvent(conn, events.Ping()); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev events.Event) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(ev)
}
