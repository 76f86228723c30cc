package predicate

import (
	"math"

	"github.com/gonum/matrix"
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/motif"
)

// svTolerance is the singular-value cutoff for the numerical rank.
const svTolerance = 1e-8

// Mask evaluates a predicate over every ordered motif pair and
// returns the 0/1 result matrix. Pairs where restrict is zero are
// forced to 0 regardless of the predicate; pass nil to evaluate all
// pairs. The diagonal is always 0.
func Mask(a *motif.Alphabet, pred Predicate, restrict *mat64.Dense) *mat64.Dense {
	n := a.Len()
	result := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if restrict != nil && restrict.At(i, j) == 0 {
				continue
			}
			if pred.Matches(a, a.Motif(i), a.Motif(j)) {
				result.Set(i, j, 1)
			}
		}
	}
	return result
}

// Redundancy computes the nullity of a set of masks: each mask is
// flattened to a row vector, the rows are stacked and the matrix rank
// is found by singular value decomposition. A non-zero result means
// the masks are linearly dependent and the model would be
// overparameterized.
func Redundancy(masks []*mat64.Dense) int {
	if len(masks) == 0 {
		return 0
	}
	r, c := masks[0].Dims()
	flat := r * c
	data := make([]float64, len(masks)*flat)
	for k, mask := range masks {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				data[k*flat+i*c+j] = mask.At(i, j)
			}
		}
	}
	eqns := mat64.NewDense(len(masks), flat, data)
	var svd mat64.SVD
	if !svd.Factorize(eqns, matrix.SVDNone) {
		// SVD of a finite matrix should never fail
		panic("SVD failed on predicate masks")
	}
	rank := 0
	for _, sv := range svd.Values(nil) {
		if math.Abs(sv) > svTolerance {
			rank++
		}
	}
	return len(masks) - rank
}

// Sum returns the number of non-zero entries of a mask.
func Sum(mask *mat64.Dense) int {
	r, c := mask.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if mask.At(i, j) != 0 {
				n++
			}
		}
	}
	return n
}

// Equal reports whether two masks select exactly the same pairs.
func Equal(a, b *mat64.Dense) bool {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return false
	}
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			if (a.At(i, j) != 0) != (b.At(i, j) != 0) {
				return false
			}
		}
	}
	return true
}

// Indices returns the flat (row-major) indices of the non-zero
// entries of a mask, in a fixed order.
func Indices(mask *mat64.Dense) []int {
	r, c := mask.Dims()
	var idx []int
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if mask.At(i, j) != 0 {
				idx = append(idx, i*c+j)
			}
		}
	}
	return idx
}

// IsSymmetrical reports whether a matrix equals its transpose.
func IsSymmetrical(m *mat64.Dense) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if m.At(i, j) != m.At(j, i) {
				return false
			}
		}
	}
	return true
}
