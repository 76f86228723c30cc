// Package rate assembles instantaneous rate matrices from predicate
// masks and parameter values, and exponentiates them into transition
// probabilities.
package rate

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// smallScale is a small value such that if Q-scale times branch
// length is less than it, the exponential is replaced by an identity
// matrix.
const smallScale = 1e-30

// Build assembles the rate matrix from the instantaneous mask (as
// floats), per-parameter flat index lists and the matching parameter
// values. Each parameter's value is scattered into its positions on a
// work buffer that is one everywhere else, and the buffer is
// multiplied elementwise into the accumulator. The buffer is reset to
// one between parameters; rates covered by several parameters
// multiply, and the diagonal stays zero.
func Build(instF *mat64.Dense, paramIndices [][]int, values []float64) *mat64.Dense {
	if len(paramIndices) != len(values) {
		panic("parameter value count doesn't match the parameter order")
	}
	n, c := instF.Dims()
	f := mat64.DenseCopyOf(instF)
	work := make([]float64, n*c)
	for i := range work {
		work[i] = 1
	}
	workM := mat64.NewDense(n, c, work)
	for p, indices := range paramIndices {
		for _, idx := range indices {
			work[idx] = values[p]
		}
		f.MulElem(f, workM)
		for _, idx := range indices {
			work[idx] = 1
		}
	}
	return f
}

// ApplyWeight multiplies the rate matrix elementwise by the
// destination-probability weight matrix.
func ApplyWeight(q, weight *mat64.Dense) {
	q.MulElem(q, weight)
}

// Complete fills the diagonal with minus the row sums and returns the
// expected substitution rate at equilibrium,
// scale = sum_i pi_i * (-Q_ii). With doScaling the caller divides
// branch lengths by the scale so that one length unit is one expected
// substitution; otherwise the returned scale is 1.
func Complete(q *mat64.Dense, wordProbs []float64, doScaling bool) float64 {
	n, _ := q.Dims()
	scale := 0.0
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			if i != j {
				rowSum += q.At(i, j)
			}
		}
		q.Set(i, i, -rowSum)
		scale += wordProbs[i] * rowSum
	}
	if !doScaling {
		return 1
	}
	return scale
}

// Exponentiator computes transition probabilities P(t) for a rate
// matrix. Implementations may cache decompositions; the default uses
// dense Padé approximation. External numerical services satisfy the
// same interface.
type Exponentiator interface {
	Exp(p *mat64.Dense, t float64) (*mat64.Dense, error)
}

// EMatrix stores a Q-matrix together with its scale and computes
// e^(Q t) by Padé approximation with scaling and squaring.
type EMatrix struct {
	Q     *mat64.Dense
	Scale float64

	scratch *mat64.Dense
}

// NewEMatrix creates a new EMatrix.
func NewEMatrix(q *mat64.Dense, scale float64) *EMatrix {
	return &EMatrix{Q: q, Scale: scale}
}

// Set replaces the Q-matrix and its scale.
func (m *EMatrix) Set(q *mat64.Dense, scale float64) {
	m.Q = q
	m.Scale = scale
}

// Exp computes P = e^(Q t) and writes it to p. A nil p allocates a
// fresh matrix. For a vanishing product of scale and time the
// identity matrix is returned.
func (m *EMatrix) Exp(p *mat64.Dense, t float64) (*mat64.Dense, error) {
	n, c := m.Q.Dims()
	if p == nil {
		p = mat64.NewDense(n, c, nil)
	}
	if m.Scale*t < smallScale {
		return identity(n, p), nil
	}
	// This is a dirty hack to allow 0-scale matrices
	if math.IsInf(t, 1) {
		t = math.MaxFloat64
	}
	if m.scratch == nil {
		m.scratch = mat64.NewDense(n, c, nil)
	}
	m.scratch.Scale(t, m.Q)
	p.Exp(m.scratch)
	// Remove slightly negative values
	p.Apply(func(r, c int, v float64) float64 {
		return math.Max(0, v)
	}, p)
	return p, nil
}

func identity(n int, p *mat64.Dense) *mat64.Dense {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				p.Set(i, j, 1)
			} else {
				p.Set(i, j, 0)
			}
		}
	}
	return p
}
