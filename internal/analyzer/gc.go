package analyzer

import (
	"fmt"
	"strings"

	"seqkmer/internal/seqio"
)

// GCContentName is the registry name of the GC-content analyzer.
const GCContentName = "gc_content"

// GCContent reports the fraction of residues that are G or C, after
// upper-casing, as a value in [0, 1].
type GCContent struct{}

func NewGCContent(Options) (Analyzer, error) {
	return &GCContent{}, nil
}

func (*GCContent) Name() string { return GCContentName }

func (*GCContent) Run(rec seqio.Record) (any, error) {
	if len(rec.Sequence) == 0 {
		return nil, fmt.Errorf("record %q has an empty sequence", rec.Header)
	}

	upper := strings.ToUpper(rec.Sequence)
	gc := strings.Count(upper, "G") + strings.Count(upper, "C")
	return float64(gc) / float64(len(upper)), nil
}
