package connmgr

import (
	"testing"
	"time"

	"apclient/internal/transport"
)

type fakeTransport struct {
	opens  []string
	events []transport.Event
}

func (f *fakeTransport) Open(uri string) error {
	f.opens = append(f.opens, uri)
	return nil
}
func (f *fakeTransport) Send(string) error { return nil }
func (f *fakeTransport) Close()            {}
func (f *fakeTransport) Poll() []transport.Event {
	out := f.events
	f.events = nil
	return out
}
func (f *fakeTransport) MinReconnectInterval() int { return 0 }

func (f *fakeTransport) injectError() {
	f.events = append(f.events, transport.Event{Kind: transport.EventError, Reason: "boom"})
}

var _ transport.Transport = (*fakeTransport)(nil)

func TestManager_URINormalizationScenario(t *testing.T) {
	tr := &fakeTransport{}
	m := New(tr, "example.com", PreferSecure)

	base := time.Unix(0, 0)
	m.Poll(base)
	if len(tr.opens) != 1 || tr.opens[0] != "wss://example.com:38281" {
		t.Fatalf("first attempt should use wss://, got %v", tr.opens)
	}

	tr.injectError()
	m.Poll(base)
	if len(tr.opens) != 2 || tr.opens[1] != "ws://example.com:38281" {
		t.Fatalf("second attempt should fall back to ws:// immediately, got %v", tr.opens)
	}
}

func TestManager_BackoffDoublesBetweenAttempts(t *testing.T) {
	tr := &fakeTransport{}
	m := New(tr, "ws://example.com", PreferSecure) // explicit scheme: no fallback churn
	base := time.Unix(0, 0)

	m.Poll(base) // attempt 1, immediate
	if len(tr.opens) != 1 {
		t.Fatalf("expected first attempt immediately")
	}

	// Not due yet before 1500ms elapses.
	m.Poll(base.Add(1400 * time.Millisecond))
	if len(tr.opens) != 1 {
		t.Fatalf("should not reattempt before k=0 interval elapses")
	}

	m.Poll(base.Add(1500 * time.Millisecond))
	if len(tr.opens) != 2 {
		t.Fatalf("expected second attempt at k=0 interval (1500ms)")
	}

	// Next interval should be 3000ms (k=1).
	m.Poll(base.Add(1500*time.Millisecond + 2900*time.Millisecond))
	if len(tr.opens) != 2 {
		t.Fatalf("should not reattempt before k=1 interval elapses")
	}
	m.Poll(base.Add(1500*time.Millisecond + 3000*time.Millisecond))
	if len(tr.opens) != 3 {
		t.Fatalf("expected third attempt at k=1 interval (3000ms)")
	}
}

func TestManager_SuccessfulOpenResetsInterval(t *testing.T) {
	tr := &fakeTransport{}
	m := New(tr, "ws://example.com", PreferSecure)
	base := time.Unix(0, 0)

	m.Poll(base)
	m.Poll(base.Add(1500 * time.Millisecond)) // second attempt doubles the interval to 3000ms
	tr.events = append(tr.events, transport.Event{Kind: transport.EventOpened})
	m.Poll(base.Add(10 * time.Second))

	if m.intervalMillis != initialIntervalMillis {
		t.Fatalf("expected interval reset to %dms, got %d", initialIntervalMillis, m.intervalMillis)
	}
}
