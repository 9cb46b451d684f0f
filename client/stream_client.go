// Package client provides a reconnecting consumer for the order event
// stream, meant for staff dashboards and kitchen displays.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second

	// The server pings every 30 seconds; a read stalled for longer than
	// two intervals means the link is dead.
	readTimeout = 65 * time.Second
)

// StreamClient keeps a websocket subscription alive across server
// restarts and network failures. Events arrive through OnEvent; after
// every successful reconnect OnReconnect fires first, so callers can
// refetch state that changed while the link was down.
type StreamClient struct {
	URL   string
	Token string

	OnEvent     func(events.Event)
	OnReconnect func()

	dialer *websocket.Dialer
}

func NewStreamClient(url, token string) *StreamClient {
	return &StreamClient{
		URL:    url,
		Token:  token,
		dialer: websocket.DefaultDialer,
	}
}

// Run connects and consumes until ctx is canceled. Dial failures and
// dropped connections are retried with doubling backoff, reset after
// any successful connection.
func (sc *StreamClient) Run(ctx context.Context) error {
	backoff := initialBackoff
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := sc.dial(ctx)
		if err != nil {
			utils.ErrorLogger.Errorf("stream dial %s failed: %v", sc.URL, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = initialBackoff
		if !first && sc.OnReconnect != nil {
			sc.OnReconnect()
		}
		first = false

		sc.consume(ctx, conn)
		conn.Close()
	}
}

func (sc *StreamClient) dial(ctx context.Context) (*websocket.Conn, error) {
	url := sc.URL
	if sc.Token != "" {
		sep := "?"
		for _, r := range url {
			if r == '?' {
				sep = "&"
				break
			}
		}
		url += sep + "token=" + sc.Token
	}
	conn, _, err := sc.dialer.DialContext(ctx, url, nil)
	return conn, err
}

// consume reads frames until the connection breaks or ctx is canceled.
// Server pings refresh the read deadline but are not surfaced.
func (sc *StreamClient) consume(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var evt events.Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			utils.ErrorLogger.Errorf("stream: malformed frame: %v", err)
			continue
		}
		if evt.Type == events.TypePing {
			continue
		}
		if sc.OnEvent != nil {
			sc.OnEvent(evt)
		}
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
