// Package connmgr drives reconnection timing and ws/wss scheme
// fallback, handing Transport edge events to whatever owns the
// Protocol state machine.
package connmgr

import (
	"strings"
	"time"

	"apclient/internal/transport"
)

const (
	defaultPort            = "38281"
	initialIntervalMillis  = 1500
	maxIntervalMillisFloor = 15000
)

// TLSPreference controls which scheme is tried first when the
// supplied address carries none.
type TLSPreference int

const (
	// PreferSecure tries wss:// first, falling back to ws://.
	PreferSecure TLSPreference = iota
	// PreferInsecure tries ws:// first, falling back to wss://.
	PreferInsecure
)

// NormalizeURI applies the address normalization rules: default
// scheme selection, default port insertion, and passthrough of
// bracketed IPv6 literals. It returns the normalized URI plus whether
// scheme fallback should be armed (true only when the caller supplied
// no scheme at all).
func NormalizeURI(addr string, pref TLSPreference) (uri string, tryFallback bool) {
	scheme := ""
	rest := addr
	if i := strings.Index(addr, "://"); i >= 0 {
		scheme = addr[:i]
		rest = addr[i+3:]
	}

	if scheme == "" {
		if pref == PreferInsecure {
			scheme = "ws"
		} else {
			scheme = "wss"
		}
		tryFallback = true
	}

	rest = ensurePort(rest)
	return scheme + "://" + rest, tryFallback
}

// ensurePort appends the default Archipelago port unless one is
// already present. Bracketed IPv6 literals ("[::1]") are passed
// through untouched except for port appension after the closing
// bracket, so their internal colons are never mistaken for a
// host:port separator.
func ensurePort(hostAndMaybePort string) string {
	path := ""
	if i := strings.IndexByte(hostAndMaybePort, '/'); i >= 0 {
		path = hostAndMaybePort[i:]
		hostAndMaybePort = hostAndMaybePort[:i]
	}

	if strings.HasPrefix(hostAndMaybePort, "[") {
		if end := strings.IndexByte(hostAndMaybePort, ']'); end >= 0 {
			afterBracket := hostAndMaybePort[end+1:]
			if strings.HasPrefix(afterBracket, ":") {
				return hostAndMaybePort + path
			}
			return hostAndMaybePort[:end+1] + ":" + defaultPort + path
		}
		return hostAndMaybePort + path
	}

	if strings.Contains(hostAndMaybePort, ":") {
		return hostAndMaybePort + path
	}
	return hostAndMaybePort + ":" + defaultPort + path
}

func flipScheme(uri string) string {
	switch {
	case strings.HasPrefix(uri, "ws://"):
		return "wss://" + strings.TrimPrefix(uri, "ws://")
	case strings.HasPrefix(uri, "wss://"):
		return "ws://" + strings.TrimPrefix(uri, "wss://")
	default:
		return uri
	}
}

// Manager owns reconnect timing and scheme fallback for one logical
// connection. It does not own the Protocol state machine; it only
// decides when Open should be (re)called and hands Transport events
// through unmodified as the return value of Poll.
type Manager struct {
	tr  transport.Transport
	uri string

	tryFallback bool
	connected   bool

	intervalMillis int
	lastAttempt    time.Time
	immediate      bool
	attempted      bool
}

// New returns a Manager that will connect to addr (normalized per
// NormalizeURI) using tr.
func New(tr transport.Transport, addr string, pref TLSPreference) *Manager {
	uri, fallback := NormalizeURI(addr, pref)
	return &Manager{
		tr:             tr,
		uri:            uri,
		tryFallback:    fallback,
		intervalMillis: initialIntervalMillis,
	}
}

// Poll is the sole driver. It opens a new connection attempt when due
// and returns whatever Transport events accumulated since the last
// call, flipping scheme and arming an immediate reconnect on either a
// transport error or close while fallback is still armed.
func (m *Manager) Poll(now time.Time) []transport.Event {
	events := m.tr.Poll()
	for _, e := range events {
		switch e.Kind {
		case transport.EventOpened:
			m.connected = true
			m.intervalMillis = initialIntervalMillis
		case transport.EventClosed, transport.EventError:
			m.connected = false
			if m.tryFallback {
				m.uri = flipScheme(m.uri)
				m.immediate = true
			}
		}
	}

	if !m.connected && m.dueForAttempt(now) {
		bootstrap := !m.attempted
		m.lastAttempt = now
		m.attempted = true
		m.immediate = false
		_ = m.tr.Open(m.uri)
		if !bootstrap {
			m.intervalMillis *= 2
			if max := m.maxInterval(); m.intervalMillis > max {
				m.intervalMillis = max
			}
		}
	}

	return events
}

func (m *Manager) maxInterval() int {
	maxInterval := maxIntervalMillisFloor
	if min := m.tr.MinReconnectInterval(); min > maxInterval {
		maxInterval = min
	}
	return maxInterval
}

func (m *Manager) dueForAttempt(now time.Time) bool {
	if !m.attempted {
		return true
	}
	if m.immediate {
		return true
	}
	return now.Sub(m.lastAttempt) >= time.Duration(m.intervalMillis)*time.Millisecond
}

// CurrentURI reports the URI the next attempt will use.
func (m *Manager) CurrentURI() string { return m.uri }
