package catalog

import (
	"testing"

	"apclient/internal/protocol"
	"apclient/internal/store"
)

type fakeStore struct {
	entries map[string]protocol.GameData // keyed by game+"|"+checksum
}

func newFakeStore() *fakeStore { return &fakeStore{entries: map[string]protocol.GameData{}} }

func (f *fakeStore) put(game, checksum string, data protocol.GameData) {
	f.entries[game+"|"+checksum] = data
}

func (f *fakeStore) Load(game, checksum string) (protocol.GameData, bool) {
	d, ok := f.entries[game+"|"+checksum]
	return d, ok
}

func (f *fakeStore) Save(game string, data protocol.GameData) error {
	f.entries[game+"|"+data.Checksum] = data
	return nil
}

var _ store.DataPackageStore = (*fakeStore)(nil)

func TestResolve_ChecksumCacheHit_NoFetch(t *testing.T) {
	st := newFakeStore()
	st.put("gameX", "abc", protocol.GameData{Checksum: "abc", ItemNameToID: map[string]int64{"A": 1}})
	st.put("Archipelago", "ap1", protocol.GameData{Checksum: "ap1"})

	room := protocol.RoomInfoCmd{
		Games:                []string{"gameX"},
		DataPackageChecksums: map[string]string{"gameX": "abc", "Archipelago": "ap1"},
	}
	dp := NewDataPackage()
	cat := New()
	res := Resolve(room, st, dp, cat)
	if !res.Valid {
		t.Fatalf("expected valid, got NeedFetch=%v", res.NeedFetch)
	}
	if len(res.NeedFetch) != 0 {
		t.Fatalf("expected no fetches, got %v", res.NeedFetch)
	}
	if cat.ItemName(1, "gameX") != "A" {
		t.Fatalf("expected catalog populated from cache hit")
	}
}

func TestResolve_PartialRefresh(t *testing.T) {
	st := newFakeStore()
	st.put("A", "k1", protocol.GameData{Checksum: "k1", ItemNameToID: map[string]int64{"ItemA": 1}})
	st.put("Archipelago", "apk", protocol.GameData{Checksum: "apk"})

	room := protocol.RoomInfoCmd{
		Games:                []string{"A", "B", "C"},
		DataPackageChecksums: map[string]string{"A": "k1", "B": "k2", "C": "k3", "Archipelago": "apk"},
	}
	dp := NewDataPackage()
	cat := New()
	res := Resolve(room, st, dp, cat)
	if res.Valid {
		t.Fatalf("expected invalid while B and C need fetching")
	}
	want := []string{"B", "C"}
	if len(res.NeedFetch) != len(want) {
		t.Fatalf("NeedFetch = %v, want %v", res.NeedFetch, want)
	}
	for i, g := range want {
		if res.NeedFetch[i] != g {
			t.Fatalf("NeedFetch = %v, want %v", res.NeedFetch, want)
		}
	}
	// A's cache hit is visible immediately, before B/C are fetched.
	if cat.ItemName(1, "A") != "ItemA" {
		t.Fatalf("expected partial validity to populate catalog for A already")
	}
}

func TestResolve_VersionFallbackForLegacyServers(t *testing.T) {
	st := newFakeStore()
	st.put("A", "", protocol.GameData{Version: 5, ItemNameToID: map[string]int64{"ItemA": 9}})

	room := protocol.RoomInfoCmd{
		Games:               []string{"A"},
		DataPackageVersions: map[string]int{"A": 5},
	}
	dp := NewDataPackage()
	cat := New()
	res := Resolve(room, st, dp, cat)
	if !res.Valid {
		t.Fatalf("expected version-based cache hit to satisfy A, got %v", res.NeedFetch)
	}
}

func TestResolve_AncientSchemaForcesFullRefetch(t *testing.T) {
	st := newFakeStore()
	room := protocol.RoomInfoCmd{DataPackageVersion: 42}
	dp := NewDataPackage()
	cat := New()
	res := Resolve(room, st, dp, cat)
	if res.Valid {
		t.Fatalf("ancient scalar datapackage_version must never be treated as valid")
	}
	if !res.FetchAll {
		t.Fatalf("expected ancient schema to request an unfiltered refetch of all played games")
	}
}

func TestBatchForFetch_PairsWithOddTrailing(t *testing.T) {
	batches := BatchForFetch([]string{"A", "B", "C", "D", "E"})
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d: %v", len(batches), batches)
	}
	if len(batches[2]) != 1 {
		t.Fatalf("expected trailing batch of 1, got %v", batches[2])
	}
}
