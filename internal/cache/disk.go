package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// EntryExt is the filename extension of every cache entry.
const EntryExt = ".json"

// tmpPrefix marks in-flight writes; Sweep and Clear skip these.
const tmpPrefix = ".tmp-"

// entryVersion tags the on-disk envelope schema. Entries carrying a
// different version deserialize as a miss, so a format change invalidates
// old caches deliberately instead of misreading them.
const entryVersion = 1

// entry is the on-disk envelope around a cached payload.
type entry struct {
	Version   int             `json:"v"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// DiskStore keeps one file per key in a flat directory. Writes go to a
// temporary file in the same directory and are renamed into place, so no
// reader ever sees a partially written entry.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the entry directory if absent and returns the store.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the active entry directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// EntryPath maps a key to its location on disk.
func (s *DiskStore) EntryPath(key string) string {
	return filepath.Join(s.dir, key+EntryExt)
}

// Get reads the entry for key. A missing file is a clean miss; an
// unreadable file, undecodable envelope or unknown envelope version is a
// miss with an informational error for the caller to log.
func (s *DiskStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context error: %w", err)
	}

	raw, err := os.ReadFile(s.EntryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	if e.Version != entryVersion {
		return nil, false, fmt.Errorf("cache entry %s has version %d, want %d", key, e.Version, entryVersion)
	}

	return e.Payload, true, nil
}

// Set writes the entry for key atomically: marshal the envelope, write it
// to a temp file in the entry directory, then rename over the final path.
// Rename within one directory is atomic on POSIX filesystems, so two
// concurrent writers leave exactly one complete entry behind.
func (s *DiskStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	raw, err := json.Marshal(entry{
		Version:   entryVersion,
		CreatedAt: time.Now().UTC(),
		Payload:   json.RawMessage(value),
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+key+"-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close cache entry: %w", err)
	}

	if err := os.Rename(tmpPath, s.EntryPath(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}
