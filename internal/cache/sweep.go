package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"seqkmer/internal/metrics"
	"seqkmer/pkg/logging/logging"
)

// DefaultMaxAge is the retention threshold applied when none is given.
const DefaultMaxAge = 7 * 24 * time.Hour

// SweepFailure records one entry the sweep could not relocate.
type SweepFailure struct {
	Path string
	Err  error
}

// SweepReport summarizes one archive/prune pass.
type SweepReport struct {
	Archived []string // entry filenames moved to the archive
	Kept     int      // entries within the retention threshold
	Failures []SweepFailure
}

// Sweep moves every entry in cacheDir older than maxAge into archiveDir,
// preserving filenames. The move is a single rename, so an entry is never
// present in both directories. Failures on individual entries — including
// an archive directory that cannot be created — are collected, not fatal:
// the sweep continues and reports them together. Running the sweep twice
// with no new entries in between is a no-op.
func Sweep(ctx context.Context, cacheDir, archiveDir string, maxAge time.Duration) (SweepReport, error) {
	logger := logging.L(ctx)

	var report SweepReport
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	entries, err := os.ReadDir(cacheDir)
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("read cache dir: %w", err)
	}

	now := time.Now()
	var errs error
	archiveReady := false

	for _, dirent := range entries {
		if dirent.IsDir() || strings.HasPrefix(dirent.Name(), tmpPrefix) {
			continue
		}

		src := filepath.Join(cacheDir, dirent.Name())

		info, err := dirent.Info()
		if err != nil {
			report.Failures = append(report.Failures, SweepFailure{Path: src, Err: err})
			errs = multierr.Append(errs, fmt.Errorf("stat %s: %w", src, err))
			metrics.SweepFailuresTotal.Inc()
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= maxAge {
			report.Kept++
			continue
		}

		if !archiveReady {
			if err := os.MkdirAll(archiveDir, 0o755); err != nil {
				report.Failures = append(report.Failures, SweepFailure{Path: src, Err: err})
				errs = multierr.Append(errs, fmt.Errorf("create archive dir: %w", err))
				metrics.SweepFailuresTotal.Inc()
				logger.Warn("sweep_entry_failed",
					zap.String("entry", dirent.Name()),
					zap.Error(err),
				)
				continue
			}
			archiveReady = true
		}

		dst := filepath.Join(archiveDir, dirent.Name())
		if err := os.Rename(src, dst); err != nil {
			report.Failures = append(report.Failures, SweepFailure{Path: src, Err: err})
			errs = multierr.Append(errs, fmt.Errorf("archive %s: %w", src, err))
			metrics.SweepFailuresTotal.Inc()
			logger.Warn("sweep_entry_failed",
				zap.String("entry", dirent.Name()),
				zap.Error(err),
			)
			continue
		}

		report.Archived = append(report.Archived, dirent.Name())
		metrics.SweepArchivedTotal.Inc()
		logger.Info("sweep_entry_archived",
			zap.String("entry", dirent.Name()),
			zap.Duration("age", age),
		)
	}

	return report, errs
}

// Clear removes every entry file from cacheDir. In-flight temp files and
// subdirectories are left alone. Per-entry failures are combined.
func Clear(ctx context.Context, cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	var errs error
	removed := 0
	for _, dirent := range entries {
		if dirent.IsDir() || strings.HasPrefix(dirent.Name(), tmpPrefix) {
			continue
		}
		if !strings.HasSuffix(dirent.Name(), EntryExt) {
			continue
		}
		if err := os.Remove(filepath.Join(cacheDir, dirent.Name())); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", dirent.Name(), err))
			continue
		}
		removed++
	}

	logging.L(ctx).Info("cache_cleared",
		zap.String("dir", cacheDir),
		zap.Int("removed", removed),
	)
	return errs
}
