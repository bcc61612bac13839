package cacheindex

import (
	"path/filepath"
	"testing"
	"time"
)

func TestIndex_UpsertAndList(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "index.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	e := Entry{Game: "GameX", Checksum: "abc", Path: "/cache/GameX/abc.json.zst", SizeBytes: 128, ModTime: time.Now(), ItemCount: 10, LocationCount: 5}
	if err := idx.Upsert(e); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := idx.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Game != "GameX" || got[0].Checksum != "abc" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestIndex_PruneRemovesMissing(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "index.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	_ = idx.Upsert(Entry{Game: "A", Checksum: "1", Path: "/a/1.json.zst", ModTime: time.Now()})
	_ = idx.Upsert(Entry{Game: "B", Checksum: "2", Path: "/b/2.json.zst", ModTime: time.Now()})

	if err := idx.Prune(map[string]struct{}{"/a/1.json.zst": {}}); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	got, err := idx.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Path != "/a/1.json.zst" {
		t.Fatalf("expected only /a/1.json.zst to survive prune, got %+v", got)
	}
}

func TestIndex_OlderThan(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "index.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()
	_ = idx.Upsert(Entry{Game: "A", Checksum: "1", Path: "/a/1.json.zst", ModTime: old})
	_ = idx.Upsert(Entry{Game: "B", Checksum: "2", Path: "/b/2.json.zst", ModTime: recent})

	stale, err := idx.OlderThan(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("OlderThan: %v", err)
	}
	if len(stale) != 1 || stale[0].Path != "/a/1.json.zst" {
		t.Fatalf("expected only the old entry, got %+v", stale)
	}
}
