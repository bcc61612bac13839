package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"apclient/internal/protocol"
)

const sanitizeExclude = `<>:"/\|?*`

// FileStore is the default DataPackageStore: one file per (game,
// checksum) under an OS-appropriate cache directory, zstd-compressed
// on disk (grounded on the same library the rest of this codebase's
// teacher uses for its append-only event log).
type FileStore struct {
	root string
}

// NewFileStore builds a store rooted at <cacheDir>/Archipelago/Cache/datapackage.
// If cacheDir is empty, the OS-appropriate user cache directory is used.
func NewFileStore(cacheDir string) *FileStore {
	root := cacheDir
	if root == "" {
		root = defaultCacheDir()
	}
	return &FileStore{root: filepath.Join(root, "Archipelago", "Cache", "datapackage")}
}

func defaultCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		if v := os.Getenv("LocalAppData"); v != "" {
			return v
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Caches")
		}
	default:
		if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
			return v
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".cache")
		}
	}
	return "cache"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(sanitizeExclude, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// path returns the on-disk path for (game, checksum), or "" if the
// pair can't be safely represented (sanitizing the checksum would
// change it, which would let two distinct checksums collide on disk).
func (s *FileStore) path(game, checksum string) string {
	safeGame := sanitize(game)
	safeChecksum := sanitize(checksum)
	if safeGame == "" || safeChecksum != checksum {
		return ""
	}
	if checksum == "" {
		return filepath.Join(s.root, safeGame+".json.zst")
	}
	return filepath.Join(s.root, safeGame, safeChecksum+".json.zst")
}

func (s *FileStore) Load(game, checksum string) (protocol.GameData, bool) {
	var data protocol.GameData
	p := s.path(game, checksum)
	if p == "" {
		return data, false
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return data, false
	}
	decoded, err := decompress(raw)
	if err != nil {
		return data, false
	}
	if err := json.Unmarshal(decoded, &data); err != nil {
		return data, false
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now) // keep in cache for external LRU tooling
	return data, true
}

func (s *FileStore) Save(game string, data protocol.GameData) error {
	p := s.path(game, data.Checksum)
	if p == "" {
		return fmt.Errorf("store: invalid cache path for game %q checksum %q", game, data.Checksum)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("store: create cache dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	compressed, err := compress(raw)
	if err != nil {
		return fmt.Errorf("store: compress: %w", err)
	}
	return os.WriteFile(p, compressed, 0o644)
}

func compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func decompress(raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(raw, nil)
}
