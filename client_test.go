package apclient

import (
	"strings"
	"testing"

	"apclient/internal/connmgr"
	"apclient/internal/protocol"
	"apclient/internal/store"
	"apclient/internal/transport"
)

type fakeTransport struct {
	events []transport.Event
	sent   []string
}

func (f *fakeTransport) Open(uri string) error { return nil }
func (f *fakeTransport) Send(text string) error {
	f.sent = append(f.sent, text)
	return nil
}
func (f *fakeTransport) Close() {}
func (f *fakeTransport) Poll() []transport.Event {
	out := f.events
	f.events = nil
	return out
}
func (f *fakeTransport) MinReconnectInterval() int { return 0 }

func (f *fakeTransport) inject(e transport.Event) { f.events = append(f.events, e) }

var _ transport.Transport = (*fakeTransport)(nil)

func newTestClient(tr *fakeTransport) *Client {
	return NewClient("uuid", "TestGame", "example.com", connmgr.PreferSecure,
		WithTransport(tr), WithStore(store.NewFileStore("")))
}

func TestClient_PreConnectChecksDrainAsUnion(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(tr)

	c.LocationChecks([]int64{100, 101})
	c.LocationChecks([]int64{101, 102})

	tr.inject(transport.Event{Kind: transport.EventOpened})
	c.Poll()
	tr.inject(transport.Event{Kind: transport.EventMessage, Message: `[{"cmd":"RoomInfo","version":{"major":0,"minor":5,"build":0},"generator_version":{"major":0,"minor":5,"build":0},"time":0,"seed_name":"s","games":["TestGame"],"datapackage_checksums":{"TestGame":"x","Archipelago":"y"}}]`})
	c.Poll()
	tr.inject(transport.Event{Kind: transport.EventMessage, Message: `[{"cmd":"Connected","team":0,"slot":1,"players":[],"missing_locations":[],"checked_locations":[]}]`})
	c.Poll()

	count := 0
	for _, sent := range tr.sent {
		if strings.Contains(sent, `"cmd":"LocationChecks"`) {
			count++
			if !(strings.Contains(sent, "100") && strings.Contains(sent, "101") && strings.Contains(sent, "102")) {
				t.Fatalf("expected union of all buffered locations, got %s", sent)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one LocationChecks send, got sends: %v", tr.sent)
	}
}

func TestClient_ReceivedItemsIndexStream(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(tr)

	var allIndices []int
	c.SetCallbacks(Callbacks{
		OnItemsReceived: func(items []protocol.NetworkItem) {
			for _, it := range items {
				allIndices = append(allIndices, it.Index)
			}
		},
	})

	tr.inject(transport.Event{Kind: transport.EventMessage, Message: `[{"cmd":"ReceivedItems","index":0,"items":[{"item":1,"location":1,"player":1,"flags":0},{"item":2,"location":2,"player":1,"flags":0},{"item":3,"location":3,"player":1,"flags":0}]}]`})
	c.Poll()
	tr.inject(transport.Event{Kind: transport.EventMessage, Message: `[{"cmd":"ReceivedItems","index":3,"items":[{"item":4,"location":4,"player":1,"flags":0}]}]`})
	c.Poll()

	want := []int{0, 1, 2, 3}
	if len(allIndices) != len(want) {
		t.Fatalf("got indices %v, want %v", allIndices, want)
	}
	for i := range want {
		if allIndices[i] != want[i] {
			t.Fatalf("got indices %v, want %v", allIndices, want)
		}
	}
}

func TestClient_RoomInfoChecksumCacheHit_NoFetch(t *testing.T) {
	tr := &fakeTransport{}
	st := store.NewFileStore(t.TempDir())
	_ = st.Save("gameX", protocol.GameData{Checksum: "abc", ItemNameToID: map[string]int64{"A": 1}})

	c := NewClient("uuid", "gameX", "example.com", connmgr.PreferSecure, WithTransport(tr), WithStore(st))

	tr.inject(transport.Event{Kind: transport.EventMessage, Message: `[{"cmd":"RoomInfo","version":{"major":0,"minor":5,"build":0},"generator_version":{"major":0,"minor":5,"build":0},"time":0,"seed_name":"s","games":["gameX"],"datapackage_checksums":{"gameX":"abc"}}]`})
	c.Poll()

	for _, sent := range tr.sent {
		if strings.Contains(sent, `"cmd":"GetDataPackage"`) {
			t.Fatalf("expected no GetDataPackage send, got %s", sent)
		}
	}
	if !c.dataPackageValid {
		t.Fatalf("expected data package valid immediately from cache hit")
	}
}

func TestClient_StatusUpdateDeferredWhenNotSlotConnected(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(tr)
	if ok := c.StatusUpdate(protocol.ClientStatusReady); ok {
		t.Fatalf("expected StatusUpdate to report not-sent before SlotConnected")
	}
	if len(tr.sent) != 0 {
		t.Fatalf("expected no wire send, got %v", tr.sent)
	}
}

func TestClient_ResetClearsState(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(tr)
	c.LocationChecks([]int64{1, 2})
	c.Reset()
	if c.State() != Disconnected {
		t.Fatalf("expected Disconnected after Reset, got %v", c.State())
	}
	if len(c.checkedLocations) != 0 {
		t.Fatalf("expected checked locations cleared after Reset")
	}
}
