package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport is the default Transport, backed by
// gorilla/websocket. Open spawns a reader goroutine that posts events
// onto an internal queue; Poll drains that queue under a mutex. This
// is the message-passing resolution the core calls for: the Transport
// never calls back into the Protocol directly, it only accumulates
// events for Poll to collect.
type WebSocketTransport struct {
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	events []Event
	closed bool
}

// NewWebSocketTransport returns a transport using a dialer with a
// 10-second handshake timeout.
func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Open is non-blocking: the handshake runs on its own goroutine, and
// completion is reported later as an EventOpened or EventError via
// Poll, per the Transport contract.
func (t *WebSocketTransport) Open(uri string) error {
	go func() {
		conn, _, err := t.dialer.Dial(uri, nil)
		if err != nil {
			t.push(Event{Kind: EventError, Reason: err.Error()})
			return
		}

		t.mu.Lock()
		t.conn = conn
		t.closed = false
		t.mu.Unlock()

		t.push(Event{Kind: EventOpened})
		t.readLoop(conn)
	}()
	return nil
}

func (t *WebSocketTransport) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			alreadyClosed := t.closed
			t.closed = true
			t.mu.Unlock()
			if !alreadyClosed {
				t.push(Event{Kind: EventClosed})
			}
			return
		}
		t.push(Event{Kind: EventMessage, Message: string(msg)})
	}
}

func (t *WebSocketTransport) Send(text string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (t *WebSocketTransport) Close() {
	t.mu.Lock()
	conn := t.conn
	wasClosed := t.closed
	t.closed = true
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	if !wasClosed {
		t.push(Event{Kind: EventClosed})
	}
}

func (t *WebSocketTransport) Poll() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.events) == 0 {
		return nil
	}
	out := t.events
	t.events = nil
	return out
}

// MinReconnectInterval reports no preference; ConnectionManager falls
// back to its own floor.
func (t *WebSocketTransport) MinReconnectInterval() int { return 0 }

func (t *WebSocketTransport) push(e Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

var _ Transport = (*WebSocketTransport)(nil)
