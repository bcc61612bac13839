// Package transport defines the abstract WebSocket transport the
// protocol state machine drives, plus a gorilla/websocket-backed
// default implementation.
package transport

// Event is one item posted onto a Transport's event queue. At most one
// field besides Kind is meaningful per Kind.
type Event struct {
	Kind    EventKind
	Message string // populated for EventMessage
	Reason  string // populated for EventError
}

type EventKind int

const (
	EventOpened EventKind = iota
	EventClosed
	EventMessage
	EventError
)

// Transport is an opaque WebSocket connection. The core only ever
// consumes open/send/close/poll and the four edge events surfaced
// through Poll; it never blocks on network I/O itself. A concrete
// Transport is free to run its own reader goroutine and bridge events
// into the single-threaded cooperative model via an internal queue
// drained by Poll.
type Transport interface {
	// Open begins connecting to uri. Non-blocking: completion is
	// reported later as an EventOpened or EventError via Poll.
	Open(uri string) error
	// Send writes one text frame. Expected to be non-blocking for
	// small frames; compliance is the transport's responsibility.
	Send(text string) error
	// Close tears down the connection without blocking.
	Close()
	// Poll drains and returns any events accumulated since the last
	// call. It never blocks.
	Poll() []Event
	// MinReconnectInterval is this transport's advertised minimum
	// acceptable reconnect interval, in milliseconds. Zero means no
	// preference.
	MinReconnectInterval() int
}
