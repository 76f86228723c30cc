package model

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/predicate"
	"bitbucket.org/Davydov/smodel/rate"
)

// MatrixParams returns the parameter assignment matrix: for every
// motif pair the sorted names of the parameters covering it. Entries
// outside the instantaneous mask are nil.
func (m *Model) MatrixParams() [][][]string {
	dim := m.alphabet.Len()
	pars := make([][][]string, dim)
	for i := 0; i < dim; i++ {
		pars[i] = make([][]string, dim)
		for j := 0; j < dim; j++ {
			if m.instMask.At(i, j) == 0 {
				continue
			}
			names := []string{}
			for _, name := range m.paramNames {
				if m.paramMasks[name].At(i, j) != 0 {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			pars[i][j] = names
		}
	}
	return pars
}

// ASCIIArt renders the parameter assignment matrix as a table, motifs
// down the side and across the top, parameter names in the cells.
func (m *Model) ASCIIArt() string {
	pars := m.MatrixParams()
	width := 1
	for _, name := range m.paramNames {
		if len(name) > width {
			width = len(name)
		}
	}
	cell := width * maxInt(1, len(m.paramNames))

	var buf bytes.Buffer
	motifLen := m.alphabet.MotifLen()
	if motifLen <= cell {
		buf.WriteString(strings.Repeat(" ", motifLen) + " ")
		for _, mot := range m.alphabet.Motifs() {
			buf.WriteString("|" + center(mot, cell))
		}
		buf.WriteString("|\n")
		header := buf.String()
		for _, c := range header[:len(header)-1] {
			if c == '|' {
				buf.WriteByte('|')
			} else {
				buf.WriteByte('-')
			}
		}
		buf.WriteByte('\n')
	}
	for i, mot := range m.alphabet.Motifs() {
		buf.WriteString(mot + " ")
		for j := range m.alphabet.Motifs() {
			elt := make([]string, 0, len(m.paramNames))
			for _, name := range m.paramNames {
				pad := strings.Repeat(" ", width)
				if containsString(pars[i][j], name) {
					pad = name + pad[len(name):]
				}
				elt = append(elt, pad)
			}
			cellStr := strings.Join(elt, "")
			if len(cellStr) < cell {
				cellStr += strings.Repeat(" ", cell-len(cellStr))
			}
			buf.WriteString("|" + cellStr)
		}
		buf.WriteString("|\n")
	}
	return buf.String()
}

func center(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	left := (w - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-len(s)-left)
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// PredicateMask resolves a rule against the already-adapted scale and
// parameter masks, adapting it fresh otherwise.
func (m *Model) PredicateMask(r Rule) (*mat64.Dense, error) {
	if mask, ok := m.scaleMasks[r.Name]; ok {
		return mask, nil
	}
	if mask, ok := m.paramMasks[r.Name]; ok {
		return mask, nil
	}
	_, mask, err := m.adaptRule(r, 0)
	return mask, err
}

// ScaleFromQs computes the bin-probability-weighted expected rate of
// substitutions matching a rule, given one Q and word-probability
// vector per bin.
func (m *Model) ScaleFromQs(qs []*mat64.Dense, binProbs []float64, wordProbs [][]float64, r Rule) (float64, error) {
	mask, err := m.PredicateMask(r)
	if err != nil {
		return 0, err
	}
	weighted := 0.0
	for b, q := range qs {
		weighted += binProbs[b] * maskedRate(mask, q, wordProbs[b])
	}
	return weighted, nil
}

// ScaledLengthsFromQ reports, per scale rule, the branch length
// attributable to substitutions matching that rule.
func (m *Model) ScaledLengthsFromQ(q *mat64.Dense, wordProbs []float64, length float64) (map[string]float64, error) {
	lengths := make(map[string]float64, len(m.scaleNames))
	for _, name := range m.scaleNames {
		scale, err := m.ScaleFromQs(
			[]*mat64.Dense{q}, []float64{1}, [][]float64{wordProbs}, Rule{Name: name})
		if err != nil {
			return nil, err
		}
		lengths[name] = length * scale
	}
	return lengths, nil
}

// SubstitutionRateValueFromQ returns the rate of rule-matching
// substitutions relative to the remaining instantaneous
// substitutions, each averaged per matrix entry.
func (m *Model) SubstitutionRateValueFromQ(q *mat64.Dense, wordProbs []float64, r Rule) (float64, error) {
	mask, err := m.PredicateMask(r)
	if err != nil {
		return 0, err
	}
	rr := maskedRate(mask, q, wordProbs)
	t := maskedRate(m.instMask, q, wordProbs)
	predSize := float64(predicate.Sum(mask))
	instSize := float64(predicate.Sum(m.instMask))
	return (rr / predSize) / ((t - rr) / (instSize - predSize)), nil
}

// maskedRate is the expected rate of substitutions selected by the
// mask: sum over i of pi_i times the masked row total.
func maskedRate(mask, q *mat64.Dense, wordProbs []float64) float64 {
	n, _ := q.Dims()
	total := 0.0
	for i := 0; i < n; i++ {
		rowTotal := 0.0
		for j := 0; j < n; j++ {
			if mask.At(i, j) != 0 {
				rowTotal += q.At(i, j)
			}
		}
		total += rowTotal * wordProbs[i]
	}
	return total
}

// WordProbsFromPrior computes the word equilibrium distribution of
// the adapted prior, nil if the prior is estimated from data.
func (m *Model) WordProbsFromPrior() []float64 {
	if m.motifProbs == nil {
		return nil
	}
	return rate.WordProbs(m.tuples, m.motifProbs...)
}

func (m *Model) String() string {
	var buf bytes.Buffer
	name := m.Name
	if name == "" {
		name = "substitution model"
	}
	fmt.Fprintf(&buf, "%s (alphabet %s, %d motifs", name, m.alphabet.Name(), m.alphabet.Len())
	if len(m.paramNames) > 0 {
		fmt.Fprintf(&buf, ", parameters %s", strings.Join(m.paramNames, ", "))
	}
	if m.nbins > 1 {
		fmt.Fprintf(&buf, ", %d bins (%s)", m.nbins, m.distribution)
	}
	if !m.Symmetric {
		buf.WriteString(", non-reversible")
	}
	buf.WriteString(")")
	return buf.String()
}
