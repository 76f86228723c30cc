package rate

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/motif"
)

// WordProbs computes the stationary probability of every word as the
// product of its monomer probabilities, normalized to sum to one.
// Pass one vector for a shared monomer distribution or one vector per
// word position for position-specific models. A nil tuple table means
// the motifs are monomers already and the single vector is returned
// normalized.
func WordProbs(t *motif.TupleIndices, monomerProbs ...[]float64) []float64 {
	if t == nil {
		if len(monomerProbs) != 1 {
			panic("position-specific probabilities need a word alphabet")
		}
		return normalized(monomerProbs[0])
	}
	size := len(t.M2W)
	length := len(t.M2W[0])
	result := make([]float64, size)
	for i := 0; i < size; i++ {
		p := 1.0
		for j := 0; j < length; j++ {
			if len(monomerProbs) == 1 {
				p *= monomerProbs[0][t.M2W[i][j]]
			} else {
				p *= monomerProbs[j][t.M2W[i][j]]
			}
		}
		result[i] = p
	}
	return normalized(result)
}

// MonomerProbs recovers monomer probabilities from word
// probabilities using the indicator tables. With positionSpecific a
// separate normalized vector per word position is returned, otherwise
// a single pooled vector.
func MonomerProbs(t *motif.TupleIndices, wordProbs []float64, positionSpecific bool) [][]float64 {
	if t == nil {
		return [][]float64{normalized(wordProbs)}
	}
	length := len(t.W2M)
	nmono := len(t.W2M[0][0])
	if !positionSpecific {
		pooled := make([]float64, nmono)
		for j := 0; j < length; j++ {
			for i, wp := range wordProbs {
				for m := 0; m < nmono; m++ {
					pooled[m] += wp * t.W2M[j][i][m]
				}
			}
		}
		return [][]float64{normalized(pooled)}
	}
	result := make([][]float64, length)
	for j := 0; j < length; j++ {
		probs := make([]float64, nmono)
		for i, wp := range wordProbs {
			for m := 0; m < nmono; m++ {
				probs[m] += wp * t.W2M[j][i][m]
			}
		}
		result[j] = normalized(probs)
	}
	return result
}

// WordWeightMatrix builds the matrix weighting each instantaneous
// pair (i,j) by the equilibrium probability of the monomer the word
// mutates into. Entries outside the instantaneous mask are zero. A
// nil pair table means monomer motifs: the weight of pair (i,j) is
// the probability of motif j itself.
func WordWeightMatrix(p *motif.PairIndices, inst *mat64.Dense, monomerProbs ...[]float64) *mat64.Dense {
	if p == nil {
		if len(monomerProbs) != 1 {
			panic("position-specific probabilities need a word alphabet")
		}
		n, c := inst.Dims()
		w := mat64.NewDense(n, c, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < c; j++ {
				if inst.At(i, j) != 0 {
					w.Set(i, j, monomerProbs[0][j])
				}
			}
		}
		return w
	}
	size := len(p.Posn)
	w := mat64.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if p.Mask.At(i, j) == 0 {
				continue
			}
			if len(monomerProbs) == 1 {
				w.Set(i, j, monomerProbs[0][p.Motif[i][j]])
			} else {
				w.Set(i, j, monomerProbs[p.Posn[i][j]][p.Motif[i][j]])
			}
		}
	}
	return w
}

func normalized(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	result := make([]float64, len(v))
	for i, x := range v {
		result[i] = x / sum
	}
	return result
}
