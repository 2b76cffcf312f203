package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seqkmer/internal/analyzer"
	"seqkmer/internal/cache"
	"seqkmer/internal/httpserver"
	"seqkmer/internal/metrics"
	"seqkmer/internal/pipeline"
	"seqkmer/internal/seqio"
	"seqkmer/pkg/logging/logging"
)

type Config struct {
	Input        string
	Output       string
	K            int
	Analyzers    string // comma-separated analyzer names, in run order
	Motif        string
	Sweep        bool
	SweepOnly    bool
	MaxAge       time.Duration
	ClearCache   bool
	CacheBackend string // "disk" or "memory"
	MetricsAddr  string
}

func LoadConfig() Config {
	var cfg Config

	flag.StringVar(&cfg.Input, "input", "", "FASTA/FASTQ input file")
	flag.StringVar(&cfg.Output, "output", getenv("SEQKMER_OUTPUT", "out"),
		"output directory (cache under <output>/cache, archive under <output>/archive)")
	flag.IntVar(&cfg.K, "k", 3, "k-mer length")
	flag.StringVar(&cfg.Analyzers, "analyzers", "", "comma-separated analyzers to run, in order")
	flag.StringVar(&cfg.Motif, "motif", "", "motif pattern for the motif_search analyzer")
	flag.BoolVar(&cfg.Sweep, "sweep", false, "archive stale cache entries before processing")
	flag.BoolVar(&cfg.SweepOnly, "sweep-only", false, "only run the archive sweep, skip processing")
	flag.DurationVar(&cfg.MaxAge, "max-age", cache.DefaultMaxAge, "sweep retention threshold")
	flag.BoolVar(&cfg.ClearCache, "clear-cache", false, "remove active cache entries after the run")
	flag.StringVar(&cfg.CacheBackend, "cache-backend", getenv("SEQKMER_CACHE_BACKEND", "disk"),
		"cache backend: disk or memory")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", getenv("SEQKMER_METRICS_ADDR", ""),
		"optional host:port serving /metrics and /healthz during the run")
	flag.Parse()

	return cfg
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seqkmer exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.Int("k", cfg.K),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Bool("sweep", cfg.Sweep || cfg.SweepOnly),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	// ----- Optional metrics listener -----
	if cfg.MetricsAddr != "" {
		r := chi.NewRouter()
		httpserver.SetupRouter(r, logger)

		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics listener started", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics listener shutdown error", zap.Error(err))
			}
		}()
	}

	cacheDir := filepath.Join(cfg.Output, "cache")
	archiveDir := filepath.Join(cfg.Output, "archive")

	// ----- Archive sweep -----
	if cfg.Sweep || cfg.SweepOnly {
		report, err := cache.Sweep(ctx, cacheDir, archiveDir, cfg.MaxAge)
		logger.Info("sweep complete",
			zap.Int("archived", len(report.Archived)),
			zap.Int("kept", report.Kept),
			zap.Int("failed", len(report.Failures)),
		)
		if err != nil {
			// per-entry failures are best-effort: report, don't abort
			logger.Warn("sweep finished with failures", zap.Error(err))
		}
		if cfg.SweepOnly {
			return nil
		}
	}

	// ----- Input -----
	if cfg.Input == "" {
		return fmt.Errorf("-input is required (or use -sweep-only)")
	}
	format := seqio.DetectFormat(cfg.Input)
	if format == seqio.FormatUnknown {
		return fmt.Errorf("cannot detect sequence format of %q: expected a FASTA or FASTQ extension", cfg.Input)
	}

	// ----- Analyzers -----
	analyzers, err := buildAnalyzers(cfg)
	if err != nil {
		return err
	}

	// ----- Cache -----
	store, err := cache.NewStore(cache.Config{
		Backend: cfg.CacheBackend,
		Dir:     cacheDir,
	})
	if err != nil {
		return err
	}
	store = cache.NewLoggingStore(store)

	// ----- Pipeline -----
	pipe, err := pipeline.New(pipeline.Config{K: cfg.K, OutDir: cfg.Output}, store, analyzers)
	if err != nil {
		return err
	}

	report, err := pipe.Run(ctx, seqio.File(cfg.Input, format))
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d records to %s\n", report.Records, report.AggregatePath)

	if cfg.ClearCache {
		if err := cache.Clear(ctx, cacheDir); err != nil {
			logger.Warn("clear cache failed", zap.Error(err))
		}
	}

	return nil
}

func buildAnalyzers(cfg Config) ([]analyzer.Analyzer, error) {
	if cfg.Analyzers == "" {
		return nil, nil
	}

	var order []string
	for _, name := range strings.Split(cfg.Analyzers, ",") {
		if name = strings.TrimSpace(name); name != "" {
			order = append(order, name)
		}
	}

	configs := map[string]analyzer.Options{
		analyzer.MotifSearchName: {"motif": cfg.Motif},
	}
	return analyzer.Default().Build(order, configs)
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
