package seqio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// ErrEmptySequence is returned for records with a header but no residues.
var ErrEmptySequence = errors.New("sequence is empty")

// ParseFASTA parses a single FASTA record from text. Sequence lines are
// concatenated; a record without residues is an error.
func ParseFASTA(text string) (Record, error) {
	var header string
	var seq strings.Builder

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ">") {
			header = strings.TrimPrefix(line, ">")
		} else {
			seq.WriteString(line)
		}
	}

	if seq.Len() == 0 {
		return Record{}, fmt.Errorf("fasta record %q: %w", header, ErrEmptySequence)
	}
	return Record{Header: header, Sequence: seq.String()}, nil
}

// ScanFASTA reads FASTA records from r lazily. Lines beginning with '>'
// start a new record; subsequent lines are concatenated into its sequence.
// Iteration stops at the first yield returning false or the first error.
func ScanFASTA(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		var header string
		var started bool
		var seq strings.Builder

		flush := func() bool {
			if !started {
				return true
			}
			if seq.Len() == 0 {
				return yield(Record{}, fmt.Errorf("fasta record %q: %w", header, ErrEmptySequence))
			}
			return yield(Record{Header: header, Sequence: seq.String()}, nil)
		}

		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r\n ")
			if strings.HasPrefix(line, ">") {
				if !flush() {
					return
				}
				header = strings.TrimPrefix(line, ">")
				started = true
				seq.Reset()
			} else if started {
				seq.WriteString(line)
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Record{}, fmt.Errorf("read fasta: %w", err))
			return
		}
		flush()
	}
}

// File returns a lazy, restartable sequence over the records of path.
// The file is opened anew on every iteration, so ranging twice re-reads it.
func File(path string, format Format) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Record{}, fmt.Errorf("open input: %w", err))
			return
		}
		defer f.Close()

		var records iter.Seq2[Record, error]
		switch format {
		case FormatFASTA:
			records = ScanFASTA(f)
		case FormatFASTQ:
			records = ScanFASTQ(f)
		default:
			yield(Record{}, fmt.Errorf("unsupported sequence format for %q", path))
			return
		}

		for rec, err := range records {
			if !yield(rec, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}
