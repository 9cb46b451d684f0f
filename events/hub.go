package events

import (
	"sync"
	"time"
)

// Event types carried by the hub and its websocket transports.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderStatus        = "order.status"
	TypePing               = "ping"
)

type Event struct {
	Type string      `json:"event"`
	Data interface{} `json:"data"`
}

// OrderCreatedData is the payload published by order intake.
type OrderCreatedData struct {
	ID          uint               `json:"id"`
	OrderNumber int                `json:"order_number"`
	Status      string             `json:"status"`
	TotalCents  int64              `json:"total_cents"`
	TableCode   string             `json:"table_code"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []OrderItemSummary `json:"items"`
}

type OrderItemSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderStatusChangedData is published on every status transition.
type OrderStatusChangedData struct {
	ID        uint      `json:"id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderStatusData is the guest-facing projection of a status change.
type OrderStatusData struct {
	ID        uint      `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ping returns a heartbeat event.
func Ping() Event {
	return Event{Type: TypePing, Data: map[string]interface{}{"ts": time.Now()}}
}

// Subscriber receives events on an independently bounded queue. A
// subscriber that stops draining loses its oldest events, never the
// publisher's time.
type Subscriber struct {
	ch    chan Event
	types map[string]struct{}
	hub   *Hub
	once  sync.Once
}

// C is the receive side of the subscriber queue. It is closed by Close.
func (s *Subscriber) C() <-chan Event {
	return s.ch
}

// Close detaches the subscriber from the hub and closes its channel.
// Safe to call more than once.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

func (s *Subscriber) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// Hub is the single process-wide publish point. Publishing never blocks
// on subscribers: when a queue is full the oldest buffered event is
// dropped to make room for the new one.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	buffer int
}

// NewHub creates a hub whose subscribers each buffer up to buffer
// events. A non-positive buffer falls back to 64.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a consumer for the given event types; with no
// types it receives everything.
func (h *Hub) Subscribe(types ...string) *Subscriber {
	sub := &Subscriber{
		ch:  make(chan Event, h.buffer),
		hub: h,
	}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish fans the event out to every interested subscriber without
// blocking.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !sub.wants(evt.Type) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Queue full: drop the oldest event, then retry once.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.ch)
}

// Len reports the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
