// ABOUTME: Durable key/value storage for the client session
// ABOUTME: Selects a file, sqlite, badger, or in-memory backend by name

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fixed keys holding the persisted session
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// ErrCorrupt marks a backing document that exists but cannot be parsed
var ErrCorrupt = errors.New("session store is corrupt")

// Store is a string key/value store shared by the whole process.
// Writes are last-write-wins; there is no transaction discipline.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
	// Close releases backend resources
	Close() error
}

// Kind names a storage backend
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindBadger Kind = "badger"
	KindMemory Kind = "memory"
)

// ParseKind validates a backend name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFile, KindSQLite, KindBadger, KindMemory:
		return k, nil
	case "":
		return KindFile, nil
	default:
		return "", fmt.Errorf("unknown store %q (want file, sqlite, badger or memory)", s)
	}
}

// Open creates the backend of the given kind rooted at dir
func Open(kind Kind, dir string) (Store, error) {
	if kind == KindMemory {
		return NewMemoryStore(), nil
	}
	if dir == "" {
		return nil, fmt.Errorf("state directory is required for %s store", kind)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	switch kind {
	case KindFile:
		return NewFileStore(filepath.Join(dir, "session.json")), nil
	case KindSQLite:
		return OpenSQLiteStore(filepath.Join(dir, "session.db"))
	case KindBadger:
		return OpenBadgerStore(filepath.Join(dir, "badger"))
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// DefaultDir returns the default state directory under XDG_CONFIG_HOME
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "trainer-admin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "trainer-admin")
}
