package storage

import (
	"fmt"
	"log/slog"
)

const DefaultStoreKind = "badger"

// NewStore builds an uninitialized store. path is the badger directory or
// the sqlite database file; the memory backend ignores it.
func NewStore(kind, path string, logger *slog.Logger) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "", "badger":
		return NewBadgerStore(BadgerConfig{Path: path, SyncWrites: true, Logger: logger}), nil
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
