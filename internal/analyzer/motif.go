package analyzer

import (
	"fmt"
	"regexp"

	"seqkmer/internal/seqio"
)

// MotifSearchName is the registry name of the motif-search analyzer.
const MotifSearchName = "motif_search"

// MotifSearch finds every occurrence of a regular-expression motif in a
// sequence and reports the 1-based start positions.
type MotifSearch struct {
	pattern *regexp.Regexp
}

func NewMotifSearch(opts Options) (Analyzer, error) {
	motif := opts["motif"]
	if motif == "" {
		return nil, fmt.Errorf("motif_search requires a %q option", "motif")
	}
	pattern, err := regexp.Compile(motif)
	if err != nil {
		return nil, fmt.Errorf("compile motif %q: %w", motif, err)
	}
	return &MotifSearch{pattern: pattern}, nil
}

func (*MotifSearch) Name() string { return MotifSearchName }

func (m *MotifSearch) Run(rec seqio.Record) (any, error) {
	matches := m.pattern.FindAllStringIndex(rec.Sequence, -1)
	positions := make([]int, 0, len(matches))
	for _, span := range matches {
		positions = append(positions, span[0]+1)
	}
	return positions, nil
}
