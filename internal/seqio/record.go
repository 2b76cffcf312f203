// Package seqio parses biological sequence files (FASTA and FASTQ) into
// immutable records. Parsing is intentionally simple and conservative:
// headers and residue strings are taken as written, with no alphabet
// validation or case folding.
package seqio

import (
	"path/filepath"
	"strings"
)

// Record is a single parsed sequence with its header line.
// Quality is empty for FASTA records.
type Record struct {
	Header   string
	Sequence string
	Quality  string
}

// Format identifies the on-disk text format of an input file.
type Format int

const (
	FormatUnknown Format = iota
	FormatFASTA
	FormatFASTQ
)

func (f Format) String() string {
	switch f {
	case FormatFASTA:
		return "fasta"
	case FormatFASTQ:
		return "fastq"
	default:
		return "unknown"
	}
}

// fastaExtensions are the suffixes recognized as FASTA input.
var fastaExtensions = map[string]bool{
	"fasta": true,
	"fa":    true,
	"fna":   true,
	"ffn":   true,
	"faa":   true,
	"frn":   true,
	"mpfa":  true,
}

var fastqExtensions = map[string]bool{
	"fastq": true,
	"fq":    true,
}

// DetectFormat maps a file path to its sequence format by extension.
func DetectFormat(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch {
	case fastaExtensions[ext]:
		return FormatFASTA
	case fastqExtensions[ext]:
		return FormatFASTQ
	default:
		return FormatUnknown
	}
}
