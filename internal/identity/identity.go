// Package identity persists the opaque identifier the protocol sends
// as ConnectCmd.UUID. One file holds one identifier; it is not keyed
// by server host. The identifier need not be a formal UUID, only
// stable across sessions and sufficiently unique;
// it is generated with a cryptographic RNG rather than a global
// srand()/rand() pair.
package identity

import (
	"encoding/hex"
	"os"

	"github.com/google/uuid"
)

// Load reads the identifier from path, generating and persisting a
// fresh one if the file is missing, empty, or truncated. An empty
// path returns a fresh, unpersisted identifier every call.
func Load(path string) (string, error) {
	if path == "" {
		return generate(), nil
	}

	if b, err := os.ReadFile(path); err == nil && len(b) >= 32 {
		return string(b[:32]), nil
	}

	id := generate()
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

// generate returns a 32-character opaque hex string, the same shape
// as the original hex-byte identifier format.
func generate() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
