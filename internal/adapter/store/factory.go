package store

import (
	"fmt"

	"matsearch/internal/domain"
	"matsearch/internal/port"
)

// Open creates a collection for the configured backend. The path is ignored
// by the memory backend.
func Open(backend, path string) (port.Collection, error) {
	switch backend {
	case "bolt", "":
		return NewBoltCollection(path)
	case "sqlite":
		return NewSQLiteCollection(path)
	case "memory":
		return NewMemoryCollection(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q: %w", backend, domain.ErrInvalidInput)
	}
}
