// Package pipeline orchestrates one run: parsed records flow through the
// cached k-mer counter, optional analyzers run per record, and the
// aggregated results are written to the output directory.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"seqkmer/internal/analyzer"
	"seqkmer/internal/cache"
	"seqkmer/internal/kmer"
	"seqkmer/internal/metrics"
	"seqkmer/internal/seqio"
	"seqkmer/pkg/logging/logging"
)

// kmerTableIdentity names the cached computation. Bump the version suffix
// whenever the table's semantics change, so old entries stop matching.
const kmerTableIdentity = "kmer_table/v1"

const (
	// AggregateFilename is the well-known per-run k-mer output file.
	AggregateFilename = "all_kmers.json"
	// AnalyzerFilename holds per-record analyzer results when analyzers run.
	AnalyzerFilename = "analyzers.json"
)

// Config parameterizes a pipeline run.
type Config struct {
	K      int    // k-mer length
	OutDir string // aggregate output directory
}

// Validate checks required fields only.
func (c *Config) Validate() error {
	if c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", c.K)
	}
	if c.OutDir == "" {
		return fmt.Errorf("output dir is required")
	}
	return nil
}

// Pipeline holds the dependencies of one processing run.
type Pipeline struct {
	cfg    Config
	counts *cache.Func[seqio.Record, kmer.FrequencyTable]
	runner *analyzer.Runner
}

// New wires the k-mer counter through store. analyzers may be empty.
func New(cfg Config, store cache.Store, analyzers []analyzer.Analyzer) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	counts := cache.NewFunc(store,
		func(rec seqio.Record) string {
			return cache.Derive(kmerTableIdentity, rec.Sequence, strconv.Itoa(cfg.K))
		},
		func(rec seqio.Record) (kmer.FrequencyTable, error) {
			return kmer.Count(rec.Sequence, cfg.K)
		},
	)

	p := &Pipeline{cfg: cfg, counts: counts}
	if len(analyzers) > 0 {
		p.runner = analyzer.NewRunner(analyzers)
	}
	return p, nil
}

// Report summarizes a completed run.
type Report struct {
	Records       int
	AggregatePath string
	AnalyzerPath  string // empty when no analyzers ran
}

// Run consumes records, computing each k-mer table through the cache, and
// writes the aggregate mapping (header -> table) once at the end. A parse
// error or a cache write failure aborts the run; analyzer failures are
// recorded per record and do not.
func (p *Pipeline) Run(ctx context.Context, records iter.Seq2[seqio.Record, error]) (Report, error) {
	logger := logging.L(ctx)

	allKmers := make(map[string]kmer.FrequencyTable)
	var analyzerResults map[string]map[string]analyzer.Result
	if p.runner != nil {
		analyzerResults = make(map[string]map[string]analyzer.Result)
	}

	for rec, err := range records {
		if err != nil {
			return Report{}, fmt.Errorf("parse input: %w", err)
		}

		table, err := p.counts.Call(ctx, rec)
		if err != nil {
			return Report{}, fmt.Errorf("record %q: %w", rec.Header, err)
		}
		allKmers[rec.Header] = table

		if p.runner != nil {
			analyzerResults[rec.Header] = p.runner.RunRecord(ctx, rec)
		}

		metrics.RecordsProcessedTotal.Inc()
		logger.Debug("record_processed",
			zap.String("header", rec.Header),
			zap.Int("sequence_len", len(rec.Sequence)),
			zap.Int("distinct_kmers", len(table)),
		)
	}

	if err := os.MkdirAll(p.cfg.OutDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output dir: %w", err)
	}

	report := Report{
		Records:       len(allKmers),
		AggregatePath: filepath.Join(p.cfg.OutDir, AggregateFilename),
	}
	if err := writeJSON(report.AggregatePath, allKmers); err != nil {
		return Report{}, err
	}

	if p.runner != nil {
		report.AnalyzerPath = filepath.Join(p.cfg.OutDir, AnalyzerFilename)
		if err := writeJSON(report.AnalyzerPath, analyzerResults); err != nil {
			return Report{}, err
		}
	}

	logger.Info("run_complete",
		zap.Int("records", report.Records),
		zap.Int("k", p.cfg.K),
		zap.String("aggregate", report.AggregatePath),
	)
	return report, nil
}

// writeJSON follows the same temp-file+rename discipline as cache entries,
// so a crashed run never leaves a half-written aggregate behind.
func writeJSON(path string, value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publish %s: %w", filepath.Base(path), err)
	}
	return nil
}
