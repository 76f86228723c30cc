package rate

import (
	"math"
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/motif"
	"bitbucket.org/Davydov/smodel/predicate"
)

const smallDiff = 1e-6

func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

// nucleotide masks for the transition scenario
func nucMasks() (instF, ts *mat64.Dense) {
	a := motif.DNA()
	inst := predicate.Mask(a, predicate.Func(func(x, y string) bool { return x != y }), nil)
	p, _ := predicate.Parse("R/R|Y/Y")
	ts = predicate.Mask(a, p, inst)
	return inst, ts
}

func TestBuild(tst *testing.T) {
	instF, ts := nucMasks()
	if predicate.Sum(instF) != 12 {
		tst.Fatal("Expected 12 instantaneous pairs, got", predicate.Sum(instF))
	}
	q := Build(instF, [][]int{predicate.Indices(ts)}, []float64{2})
	twos, ones := 0, 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			switch {
			case i == j:
				if q.At(i, j) != 0 {
					tst.Error("Diagonal must be zero")
				}
			case q.At(i, j) == 2:
				twos++
			case q.At(i, j) == 1:
				ones++
			default:
				tst.Error("Unexpected entry:", q.At(i, j))
			}
		}
	}
	if twos != 4 || ones != 8 {
		tst.Errorf("Expected 4 transition and 8 transversion entries, got %d and %d", twos, ones)
	}
}

// Overlapping parameters multiply; the scratch buffer must not leak
// one parameter's value into another's entries.
func TestBuildOverlap(tst *testing.T) {
	instF, ts := nucMasks()
	a := motif.DNA()
	tc, _ := predicate.Parse("T/C")
	tcm := predicate.Mask(a, tc, instF)
	q := Build(instF, [][]int{predicate.Indices(ts), predicate.Indices(tcm)}, []float64{2, 3})
	if !appreq(q.At(0, 1), 6) {
		tst.Error("T->C should multiply both parameters, got", q.At(0, 1))
	}
	// A<->G covered by the first parameter only
	if !appreq(q.At(2, 3), 2) {
		tst.Error("A->G should keep the first parameter value, got", q.At(2, 3))
	}
	if !appreq(q.At(0, 2), 1) {
		tst.Error("Transversion entries should stay 1, got", q.At(0, 2))
	}
}

func TestComplete(tst *testing.T) {
	instF, ts := nucMasks()
	q := Build(instF, [][]int{predicate.Indices(ts)}, []float64{2})
	probs := []float64{0.25, 0.25, 0.25, 0.25}
	w := WordWeightMatrix(nil, instF, probs)
	ApplyWeight(q, w)
	scale := Complete(q, probs, true)
	// each row: one transition (2*0.25) plus two transversions (0.25)
	if !appreq(scale, 1) {
		tst.Error("Expected scale 1, got", scale)
	}
	for i := 0; i < 4; i++ {
		sum := 0.0
		for j := 0; j < 4; j++ {
			sum += q.At(i, j)
		}
		if !appreq(sum, 0) {
			tst.Error("Row should sum to zero, got", sum)
		}
	}
	if Complete(mat64.DenseCopyOf(q), probs, false) != 1 {
		tst.Error("Scale should be 1 without scaling")
	}
}

func TestExp(tst *testing.T) {
	instF, ts := nucMasks()
	q := Build(instF, [][]int{predicate.Indices(ts)}, []float64{2})
	probs := []float64{0.25, 0.25, 0.25, 0.25}
	ApplyWeight(q, WordWeightMatrix(nil, instF, probs))
	scale := Complete(q, probs, true)
	e := NewEMatrix(q, scale)

	p, err := e.Exp(nil, 0)
	if err != nil {
		tst.Fatal("Exp error:", err)
	}
	for i := 0; i < 4; i++ {
		if !appreq(p.At(i, i), 1) {
			tst.Error("Expected identity at t=0")
		}
	}

	p, err = e.Exp(p, 0.5)
	if err != nil {
		tst.Fatal("Exp error:", err)
	}
	for i := 0; i < 4; i++ {
		sum := 0.0
		for j := 0; j < 4; j++ {
			v := p.At(i, j)
			if v < 0 || v > 1 {
				tst.Error("Probability out of range:", v)
			}
			sum += v
		}
		if !appreq(sum, 1) {
			tst.Error("Row should sum to one, got", sum)
		}
	}

	// long branches approach the equilibrium distribution
	p, err = e.Exp(p, 1000)
	if err != nil {
		tst.Fatal("Exp error:", err)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if !appreq(p.At(i, j), 0.25) {
				tst.Error("Expected equilibrium 0.25, got", p.At(i, j))
			}
		}
	}
}
