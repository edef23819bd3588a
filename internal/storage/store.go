package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known keys of the console's persisted state.
const (
	KeyAccessToken    = "accessToken"
	KeyExpirationDate = "expirationDate"
	KeyRefreshToken   = "refreshToken"
)

const (
	TypeFile   = "file"
	TypeMemory = "memory"
)

// Store is the key-value persistence surface the session manager writes
// through to. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Remove(keys ...string) error
}

// New returns the store configured by storeType. Paths starting with ~ are
// expanded to the user's home directory.
func New(storeType string, path string) (Store, error) {
	switch strings.ToLower(storeType) {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeFile, "":
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		return OpenFileStore(expanded)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storeType)
	}
}

func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
