package bio

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// CountMotifs counts non-overlapping motifs of length motifLen over
// all the sequences. Unknown motifs (ambiguity codes, partial gaps)
// are skipped. If recodeGaps is true, fully gapped motifs are skipped
// as well, i.e. gaps are treated as an ambiguous state.
func CountMotifs(seqs Sequences, motifs []string, motifLen int, recodeGaps bool) map[string]float64 {
	known := make(map[string]bool, len(motifs))
	for _, m := range motifs {
		known[m] = true
	}
	gap := strings.Repeat("-", motifLen)
	counts := make(map[string]float64, len(motifs))
	for _, seq := range seqs {
		s := seq.Sequence
		for i := 0; i+motifLen <= len(s); i += motifLen {
			motif := s[i : i+motifLen]
			if recodeGaps && motif == gap {
				continue
			}
			if known[motif] {
				counts[motif]++
			}
		}
	}
	return counts
}

// MotifProbsFromCounts converts motif counts to a probability vector
// in the order of the motifs slice.
func MotifProbsFromCounts(counts map[string]float64, motifs []string) ([]float64, error) {
	total := 0.0
	for _, m := range motifs {
		total += counts[m]
	}
	if total == 0 {
		return nil, errors.New("no motifs counted")
	}
	probs := make([]float64, len(motifs))
	for i, m := range motifs {
		probs[i] = counts[m] / total
	}
	return probs, nil
}

// ReadPAMLMatrix reads an empirical amino-acid exchangeability matrix
// in the PAML .dat layout: the lower triangle of a size x size matrix
// row by row, followed by size equilibrium frequencies. The returned
// matrix is flat (row-major), symmetric and has a zero diagonal.
func ReadPAMLMatrix(rd io.Reader, size int) (mat, freqs []float64, err error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(bufio.ScanWords)

	next := func() (float64, error) {
		if !scanner.Scan() {
			return 0, errors.New("unexpected end of matrix file")
		}
		return strconv.ParseFloat(scanner.Text(), 64)
	}

	mat = make([]float64, size*size)
	for i := 1; i < size; i++ {
		for j := 0; j < i; j++ {
			v, err := next()
			if err != nil {
				return nil, nil, err
			}
			mat[i*size+j] = v
			mat[j*size+i] = v
		}
	}
	freqs = make([]float64, size)
	for i := 0; i < size; i++ {
		v, err := next()
		if err != nil {
			return nil, nil, err
		}
		freqs[i] = v
	}
	return mat, freqs, nil
}
