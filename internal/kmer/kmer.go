// Package kmer counts fixed-length substrings of a sequence.
package kmer

import "fmt"

// FrequencyTable maps a k-mer to its occurrence count within one sequence.
// Every key has length exactly k; the counts sum to len(sequence)-k+1
// whenever that value is non-negative.
type FrequencyTable map[string]int

// Total returns the sum of all counts.
func (t FrequencyTable) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Count slides a window of length k across sequence and tallies every
// substring it covers. No case folding is applied: "ATG" and "atg" are
// distinct. k larger than the sequence yields an empty table; a
// non-positive k is rejected.
func Count(sequence string, k int) (FrequencyTable, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	table := make(FrequencyTable)
	if k > len(sequence) {
		return table, nil
	}

	for i := 0; i+k <= len(sequence); i++ {
		table[sequence[i:i+k]]++
	}
	return table, nil
}
