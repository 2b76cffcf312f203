package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	ctx := context.Background()
	key := Derive("test/v1", "ATGATG", "3")

	if _, hit, err := store.Get(ctx, key); err != nil || hit {
		t.Fatalf("expected clean miss on empty store, got hit=%v err=%v", hit, err)
	}

	payload := []byte(`{"ATG":2}`)
	if err := store.Set(ctx, key, payload); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatalf("expected hit after Set")
	}
	if string(got) != string(payload) {
		t.Fatalf("payload = %s, want %s", got, payload)
	}
}

func TestDiskStoreEmbedsTimestampAndVersion(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	key := Derive("test/v1", "GGGG", "3")
	before := time.Now().UTC().Add(-time.Second)
	if err := store.Set(context.Background(), key, []byte(`1`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	raw, err := os.ReadFile(store.EntryPath(key))
	if err != nil {
		t.Fatalf("read entry file: %v", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("entry file is not a JSON envelope: %v", err)
	}
	if e.Version != entryVersion {
		t.Fatalf("entry version = %d, want %d", e.Version, entryVersion)
	}
	if e.CreatedAt.Before(before) || e.CreatedAt.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("created_at %v is not from this run", e.CreatedAt)
	}
}

func TestDiskStoreCorruptEntryIsMiss(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	ctx := context.Background()
	key := Derive("test/v1", "ATG", "1")
	if err := store.Set(ctx, key, []byte(`{"A":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := os.WriteFile(store.EntryPath(key), []byte("not json at all"), 0o644); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	_, hit, _ := store.Get(ctx, key)
	if hit {
		t.Fatalf("corrupt entry must read as a miss")
	}
}

func TestDiskStoreUnknownVersionIsMiss(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	ctx := context.Background()
	key := Derive("test/v1", "ATG", "2")

	stale, err := json.Marshal(entry{
		Version:   entryVersion + 1,
		CreatedAt: time.Now().UTC(),
		Payload:   json.RawMessage(`{"AT":1,"TG":1}`),
	})
	if err != nil {
		t.Fatalf("marshal stale entry: %v", err)
	}
	if err := os.WriteFile(store.EntryPath(key), stale, 0o644); err != nil {
		t.Fatalf("write stale entry: %v", err)
	}

	_, hit, _ := store.Get(ctx, key)
	if hit {
		t.Fatalf("entry with unknown version must read as a miss")
	}
}

func TestDiskStoreOverwritesLastWriterWins(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	ctx := context.Background()
	key := Derive("test/v1", "ATG", "3")
	if err := store.Set(ctx, key, []byte(`"first"`)); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	if err := store.Set(ctx, key, []byte(`"second"`)); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	got, hit, err := store.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("Get after overwrite: hit=%v err=%v", hit, err)
	}
	if string(got) != `"second"` {
		t.Fatalf("payload = %s, want %q", got, "second")
	}
}

func TestDiskStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	ctx := context.Background()
	for i, seq := range []string{"ATG", "GGG", "CCC"} {
		if err := store.Set(ctx, Derive("test/v1", seq), []byte(`1`)); err != nil {
			t.Fatalf("Set %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	for _, dirent := range entries {
		if strings.HasPrefix(dirent.Name(), tmpPrefix) {
			t.Fatalf("temp file left behind: %s", dirent.Name())
		}
		if !strings.HasSuffix(dirent.Name(), EntryExt) {
			t.Fatalf("unexpected file in cache dir: %s", dirent.Name())
		}
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestDiskStoreWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	// Replace the cache dir with a regular file so MkdirAll and
	// CreateTemp inside Set must fail.
	if err := os.RemoveAll(store.Dir()); err != nil {
		t.Fatalf("remove cache dir: %v", err)
	}
	if err := os.WriteFile(store.Dir(), []byte("in the way"), 0o644); err != nil {
		t.Fatalf("block cache dir: %v", err)
	}

	if err := store.Set(context.Background(), Derive("test/v1", "ATG"), []byte(`1`)); err == nil {
		t.Fatalf("expected write failure to propagate")
	}
}
