package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkoM123/cafe-gaming-platform/events"
)

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	backoff := initialBackoff
	var seen []time.Duration
	for i := 0; i < 7; i++ {
		seen = append(seen, backoff)
		backoff = nextBackoff(backoff)
	}
	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}, seen)
}

func TestRunReceivesEventsAndSkipsPings(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	var conns int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		n := atomic.AddInt32(&conns, 1)
		require.NoError(t, conn.WriteJSON(events.Ping()))
		require.NoError(t, conn.WriteJSON(events.Event{
			Type: events.TypeOrderStatusChanged,
			Data: map[string]interface{}{"id": n},
		}))
		// Dropping the connection forces the client to reconnect.
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Event, 8)
	var reconnects int32

	sc := NewStreamClient(url, "")
	sc.OnEvent = func(evt events.Event) { received <- evt }
	sc.OnReconnect = func() { atomic.AddInt32(&reconnects, 1) }

	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()

	// Two events means the client survived at least one reconnect, and
	// pings never reached OnEvent.
	for i := 0; i < 2; i++ {
		select {
		case evt := <-received:
			assert.Equal(t, events.TypeOrderStatusChanged, evt.Type)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for stream event")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	assert.GreaterOrEqual(t, atomic.LoadInt32(&reconnects), int32(1))
}
