// Package analyzer runs named analyses over sequence records. Analyzers
// are looked up by stable name in an explicitly populated registry and
// invoked in a caller-chosen order.
package analyzer

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"seqkmer/internal/seqio"
	"seqkmer/pkg/logging/logging"
)

// Options carries per-analyzer constructor parameters.
type Options map[string]string

// Analyzer performs one analysis on a sequence record.
type Analyzer interface {
	Name() string
	Run(rec seqio.Record) (any, error)
}

// Factory builds an analyzer from its options.
type Factory func(opts Options) (Analyzer, error)

// Registry maps analyzer names to factories. It is populated by explicit
// Register calls at startup; nothing registers itself implicitly.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Registering the same name twice is
// a programmer error and is rejected.
func (r *Registry) Register(name string, f Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("analyzer %q is already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Names lists the registered analyzer names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the analyzers named in order, each with its options
// from configs. An unknown name fails the whole build.
func (r *Registry) Build(order []string, configs map[string]Options) ([]Analyzer, error) {
	analyzers := make([]Analyzer, 0, len(order))
	for _, name := range order {
		factory, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("unknown analyzer %q (registered: %v)", name, r.Names())
		}
		a, err := factory(configs[name])
		if err != nil {
			return nil, fmt.Errorf("build analyzer %q: %w", name, err)
		}
		analyzers = append(analyzers, a)
	}
	return analyzers, nil
}

// Default returns a registry with the built-in analyzers.
func Default() *Registry {
	r := NewRegistry()
	// built-ins cannot collide in a fresh registry
	_ = r.Register(GCContentName, NewGCContent)
	_ = r.Register(MotifSearchName, NewMotifSearch)
	return r
}

// Result is one analyzer's outcome for one record. A failing analyzer
// records its error and does not suppress the others.
type Result struct {
	Value any    `json:"value,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Runner invokes a fixed sequence of analyzers per record.
type Runner struct {
	analyzers []Analyzer
}

func NewRunner(analyzers []Analyzer) *Runner {
	return &Runner{analyzers: analyzers}
}

// RunRecord runs every analyzer on rec, in order, and returns their
// results keyed by analyzer name.
func (r *Runner) RunRecord(ctx context.Context, rec seqio.Record) map[string]Result {
	results := make(map[string]Result, len(r.analyzers))
	for _, a := range r.analyzers {
		value, err := a.Run(rec)
		if err != nil {
			logging.L(ctx).Warn("analyzer_failed",
				zap.String("analyzer", a.Name()),
				zap.String("record", rec.Header),
				zap.Error(err),
			)
			results[a.Name()] = Result{Err: err.Error()}
			continue
		}
		results[a.Name()] = Result{Value: value}
	}
	return results
}
