package seqio

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// ParseFASTQ parses a single four-line FASTQ record from text.
func ParseFASTQ(text string) (Record, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 4 {
		return Record{}, fmt.Errorf("fastq record too short: got %d lines, want 4", len(lines))
	}
	return buildFastqRecord(lines[0], lines[1], lines[2], lines[3])
}

// ScanFASTQ reads four-line FASTQ records from r lazily. A trailing
// partial record is an error.
func ScanFASTQ(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		lines := make([]string, 0, 4)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r\n ")
			if len(lines) == 0 && line == "" {
				continue
			}
			lines = append(lines, line)
			if len(lines) == 4 {
				rec, err := buildFastqRecord(lines[0], lines[1], lines[2], lines[3])
				if !yield(rec, err) || err != nil {
					return
				}
				lines = lines[:0]
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Record{}, fmt.Errorf("read fastq: %w", err))
			return
		}
		if len(lines) != 0 {
			yield(Record{}, fmt.Errorf("fastq record too short: got %d lines, want 4", len(lines)))
		}
	}
}

func buildFastqRecord(header, sequence, separator, quality string) (Record, error) {
	if !strings.HasPrefix(header, "@") {
		return Record{}, fmt.Errorf("fastq header %q does not start with '@'", header)
	}
	if !strings.HasPrefix(separator, "+") {
		return Record{}, fmt.Errorf("fastq separator line %q does not start with '+'", separator)
	}
	if quality == "" {
		return Record{}, fmt.Errorf("fastq record %q: quality string is empty", header[1:])
	}
	if len(quality) != len(sequence) {
		return Record{}, fmt.Errorf("fastq record %q: quality length %d does not match sequence length %d",
			header[1:], len(quality), len(sequence))
	}
	return Record{Header: header[1:], Sequence: sequence, Quality: quality}, nil
}
