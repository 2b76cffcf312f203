package cache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func day(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func seedEntry(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(`{"v":1,"payload":1}`), 0o644); err != nil {
		t.Fatalf("write entry %s: %v", name, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("age entry %s: %v", name, err)
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestSweepMovesOnlyStaleEntries(t *testing.T) {
	cacheDir := t.TempDir()
	archiveDir := filepath.Join(t.TempDir(), "archive")

	seedEntry(t, cacheDir, "a"+EntryExt, day(1))
	seedEntry(t, cacheDir, "b"+EntryExt, day(6))
	seedEntry(t, cacheDir, "c"+EntryExt, day(8))
	seedEntry(t, cacheDir, "d"+EntryExt, day(30))

	report, err := Sweep(context.Background(), cacheDir, archiveDir, day(7))
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if len(report.Archived) != 2 || report.Kept != 2 {
		t.Fatalf("report = %+v, want 2 archived and 2 kept", report)
	}

	wantActive := []string{"a" + EntryExt, "b" + EntryExt}
	wantArchived := []string{"c" + EntryExt, "d" + EntryExt}

	if got := dirNames(t, cacheDir); !equalStrings(got, wantActive) {
		t.Fatalf("active dir = %v, want %v", got, wantActive)
	}
	if got := dirNames(t, archiveDir); !equalStrings(got, wantArchived) {
		t.Fatalf("archive dir = %v, want %v", got, wantArchived)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	cacheDir := t.TempDir()
	archiveDir := filepath.Join(t.TempDir(), "archive")

	seedEntry(t, cacheDir, "fresh"+EntryExt, day(1))
	seedEntry(t, cacheDir, "stale"+EntryExt, day(10))

	if _, err := Sweep(context.Background(), cacheDir, archiveDir, day(7)); err != nil {
		t.Fatalf("first Sweep failed: %v", err)
	}
	second, err := Sweep(context.Background(), cacheDir, archiveDir, day(7))
	if err != nil {
		t.Fatalf("second Sweep failed: %v", err)
	}

	if len(second.Archived) != 0 || len(second.Failures) != 0 {
		t.Fatalf("second sweep must be a no-op, got %+v", second)
	}
	if got := dirNames(t, cacheDir); !equalStrings(got, []string{"fresh" + EntryExt}) {
		t.Fatalf("active dir after second sweep = %v", got)
	}
}

func TestSweepSkipsTempFilesAndSubdirs(t *testing.T) {
	cacheDir := t.TempDir()
	archiveDir := filepath.Join(t.TempDir(), "archive")

	seedEntry(t, cacheDir, tmpPrefix+"inflight", day(30))
	if err := os.Mkdir(filepath.Join(cacheDir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	report, err := Sweep(context.Background(), cacheDir, archiveDir, day(7))
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(report.Archived) != 0 {
		t.Fatalf("sweep must not touch temp files or directories, archived %v", report.Archived)
	}
	if got := dirNames(t, archiveDir); len(got) != 0 {
		t.Fatalf("archive dir should not exist or be empty, got %v", got)
	}
}

func TestSweepContinuesPastFailedMove(t *testing.T) {
	cacheDir := t.TempDir()
	archiveDir := filepath.Join(t.TempDir(), "archive")

	seedEntry(t, cacheDir, "blocked"+EntryExt, day(10))
	seedEntry(t, cacheDir, "movable"+EntryExt, day(10))

	// A non-empty directory at the archive destination makes the
	// rename of one entry fail while the other still goes through.
	blockedDst := filepath.Join(archiveDir, "blocked"+EntryExt)
	if err := os.MkdirAll(blockedDst, 0o755); err != nil {
		t.Fatalf("block destination: %v", err)
	}
	if err := os.WriteFile(filepath.Join(blockedDst, "occupant"), []byte("x"), 0o644); err != nil {
		t.Fatalf("fill destination: %v", err)
	}

	report, err := Sweep(context.Background(), cacheDir, archiveDir, day(7))
	if err == nil {
		t.Fatalf("expected aggregated error for the failed move")
	}

	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v, want exactly 1", report.Failures)
	}
	if report.Failures[0].Path != filepath.Join(cacheDir, "blocked"+EntryExt) {
		t.Fatalf("failure path = %s", report.Failures[0].Path)
	}
	if report.Failures[0].Err == nil {
		t.Fatalf("failure must carry its cause")
	}
	if !equalStrings(report.Archived, []string{"movable" + EntryExt}) {
		t.Fatalf("archived = %v, want only the movable entry", report.Archived)
	}

	// the unmovable entry stays in the active directory
	if got := dirNames(t, cacheDir); !equalStrings(got, []string{"blocked" + EntryExt}) {
		t.Fatalf("active dir = %v, want the blocked entry kept", got)
	}
}

func TestSweepReportsUncreatableArchiveDir(t *testing.T) {
	cacheDir := t.TempDir()

	// archive path nested under a regular file, so MkdirAll must fail
	obstruction := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(obstruction, []byte("in the way"), 0o644); err != nil {
		t.Fatalf("write obstruction: %v", err)
	}
	archiveDir := filepath.Join(obstruction, "archive")

	seedEntry(t, cacheDir, "a"+EntryExt, day(10))
	seedEntry(t, cacheDir, "b"+EntryExt, day(10))

	report, err := Sweep(context.Background(), cacheDir, archiveDir, day(7))
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if len(report.Failures) != 2 || len(report.Archived) != 0 {
		t.Fatalf("report = %+v, want 2 failures and nothing archived", report)
	}
	if got := dirNames(t, cacheDir); !equalStrings(got, []string{"a" + EntryExt, "b" + EntryExt}) {
		t.Fatalf("active dir = %v, entries must stay put", got)
	}
}

func TestSweepMissingCacheDirIsNoop(t *testing.T) {
	report, err := Sweep(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir(), day(7))
	if err != nil {
		t.Fatalf("Sweep on missing dir failed: %v", err)
	}
	if len(report.Archived) != 0 || report.Kept != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestClearRemovesEntries(t *testing.T) {
	cacheDir := t.TempDir()
	seedEntry(t, cacheDir, "a"+EntryExt, 0)
	seedEntry(t, cacheDir, "b"+EntryExt, 0)
	seedEntry(t, cacheDir, tmpPrefix+"inflight", 0)

	if err := Clear(context.Background(), cacheDir); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if got := dirNames(t, cacheDir); !equalStrings(got, []string{tmpPrefix + "inflight"}) {
		t.Fatalf("after Clear dir = %v, want only the in-flight temp file", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
