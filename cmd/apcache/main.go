// Command apcache audits and prunes the on-disk data package cache
// (internal/store) via a SQLite side-index (internal/cacheindex).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"apclient/internal/cacheindex"
	"apclient/internal/protocol"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cacheDirFlag := flag.String("cache-dir", defaultCacheRoot(), "root of the Archipelago data package cache")
	dbFlag := flag.String("db", "", "path to the index database (default: <cache-dir>/index.sqlite3)")
	olderThan := flag.Duration("older-than", 30*24*time.Hour, "gc: remove entries not touched within this duration")
	dryRun := flag.Bool("dry-run", false, "gc: report what would be removed without deleting")

	cmd := os.Args[1]
	if err := flag.CommandLine.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = filepath.Join(*cacheDirFlag, "index.sqlite3")
	}

	idx, err := cacheindex.Open(dbPath)
	if err != nil {
		fatalf("open index: %v", err)
	}
	defer idx.Close()

	switch cmd {
	case "reindex":
		if err := reindex(idx, *cacheDirFlag); err != nil {
			fatalf("reindex: %v", err)
		}
	case "list":
		if err := list(idx); err != nil {
			fatalf("list: %v", err)
		}
	case "gc":
		if err := gc(idx, *olderThan, *dryRun); err != nil {
			fatalf("gc: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: apcache <reindex|list|gc> [flags]")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "apcache: "+format+"\n", args...)
	os.Exit(1)
}

func defaultCacheRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "Archipelago", "Cache", "datapackage")
}

// reindex walks <cache-dir>/<game>/<checksum>.json.zst and the
// checksum-less <cache-dir>/<game>.json.zst files, decompressing
// each file to recover item/location counts, and upserts the result
// into the index. Entries whose backing file has disappeared since
// the last reindex are pruned.
func reindex(idx *cacheindex.Index, cacheDir string) error {
	seen := map[string]struct{}{}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()

	err = filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".zst" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil // skip unreadable files rather than aborting the whole walk
		}
		decoded, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil
		}
		var data protocol.GameData
		if err := json.Unmarshal(decoded, &data); err != nil {
			return nil
		}

		game := filepath.Base(filepath.Dir(path))
		if filepath.Dir(path) == filepath.Clean(cacheDir) {
			game = strings.TrimSuffix(filepath.Base(path), ".json.zst")
		}
		entry := cacheindex.Entry{
			Game:          game,
			Checksum:      data.Checksum,
			Path:          path,
			SizeBytes:     info.Size(),
			ModTime:       info.ModTime(),
			ItemCount:     len(data.ItemNameToID),
			LocationCount: len(data.LocationNameToID),
		}
		if err := idx.Upsert(entry); err != nil {
			return err
		}
		seen[path] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}
	return idx.Prune(seen)
}

func list(idx *cacheindex.Index) error {
	entries, err := idx.List()
	if err != nil {
		return err
	}
	var total int64
	for _, e := range entries {
		total += e.SizeBytes
		fmt.Printf("%-24s %-40s %8s  %5d items  %5d locations  %s\n",
			e.Game, e.Checksum, humanize.Bytes(uint64(e.SizeBytes)), e.ItemCount, e.LocationCount,
			humanize.Time(e.ModTime))
	}
	fmt.Printf("%d entries, %s total\n", len(entries), humanize.Bytes(uint64(total)))
	return nil
}

func gc(idx *cacheindex.Index, olderThan time.Duration, dryRun bool) error {
	stale, err := idx.OlderThan(time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	var freed int64
	for _, e := range stale {
		freed += e.SizeBytes
		if dryRun {
			fmt.Printf("would remove %s (%s, last touched %s)\n", e.Path, humanize.Bytes(uint64(e.SizeBytes)), humanize.Time(e.ModTime))
			continue
		}
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := idx.Remove(e.Path); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", e.Path)
	}
	fmt.Printf("%d entries, %s %s\n", len(stale), humanize.Bytes(uint64(freed)), map[bool]string{true: "would be freed", false: "freed"}[dryRun])
	return nil
}
