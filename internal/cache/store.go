// Package cache implements a content-addressed get-or-compute store.
//
// Keys are SHA-256 fingerprints of a computation's identity and arguments
// (Derive). The disk backend keeps one file per key, written atomically, so
// concurrent independent writers can race on the same key without a reader
// ever observing a torn entry. Stale entries are relocated by Sweep.
package cache

import (
	"context"
	"fmt"
)

// Store is the backend used by GetOrCompute.
// Implemented by the disk store (production) and the memory store (tests/dev).
type Store interface {
	// Get returns the stored payload for key. A missing, corrupt or
	// unreadable entry is a miss, not a failure; err is informational
	// and callers treat any non-hit as a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set persists the payload under key. Write failures are returned:
	// a cache that claims success without persisting is a correctness
	// hazard.
	Set(ctx context.Context, key string, value []byte) error
}

// Config selects and parameterizes a Store backend.
type Config struct {
	Backend string // "disk" (default) or "memory"
	Dir     string // entry directory, disk backend only
}

// Validate checks required fields only.
func (c *Config) Validate() error {
	if c.Backend == "disk" && c.Dir == "" {
		return fmt.Errorf("cache dir is required for the disk backend")
	}
	return nil
}

// WithDefaults returns a copy of Config with defaults applied.
func (c *Config) WithDefaults() Config {
	cfg := *c
	if cfg.Backend == "" {
		cfg.Backend = "disk"
	}
	return cfg
}
