package rate

import (
	"testing"

	"bitbucket.org/Davydov/smodel/motif"
	"bitbucket.org/Davydov/smodel/predicate"
)

func TestWordProbsUniform(tst *testing.T) {
	words := motif.DNA().Word(3)
	t, err := motif.NewTupleIndices(words, motif.DNA())
	if err != nil {
		tst.Fatal("Unexpected error:", err)
	}
	uniform := []float64{0.25, 0.25, 0.25, 0.25}
	probs := WordProbs(t, uniform)
	sum := 0.0
	for _, p := range probs {
		if !appreq(p, 1.0/64) {
			tst.Error("Expected 1/64, got", p)
		}
		sum += p
	}
	if !appreq(sum, 1) {
		tst.Error("Probabilities should sum to one, got", sum)
	}
}

func TestWordProbsSkewed(tst *testing.T) {
	words := motif.DNA().Word(2)
	t, _ := motif.NewTupleIndices(words, motif.DNA())
	mono := []float64{0.1, 0.2, 0.3, 0.4}
	probs := WordProbs(t, mono)
	i, _ := words.Index("CA")
	if !appreq(probs[i], 0.2*0.3) {
		tst.Error("Expected P(CA)=0.06, got", probs[i])
	}

	// position-specific vectors
	probs = WordProbs(t, mono, []float64{0.4, 0.3, 0.2, 0.1})
	if !appreq(probs[i], 0.2*0.2) {
		tst.Error("Expected position-specific P(CA)=0.04, got", probs[i])
	}
}

func TestMonomerProbsRoundTrip(tst *testing.T) {
	words := motif.DNA().Word(2)
	t, _ := motif.NewTupleIndices(words, motif.DNA())
	mono := []float64{0.1, 0.2, 0.3, 0.4}
	wp := WordProbs(t, mono)
	back := MonomerProbs(t, wp, false)
	if len(back) != 1 {
		tst.Fatal("Expected a single pooled vector")
	}
	for i := range mono {
		if !appreq(back[0][i], mono[i]) {
			tst.Error("Round trip mismatch:", back[0], mono)
		}
	}
}

func TestWordWeightMatrix(tst *testing.T) {
	words := motif.DNA().Word(2)
	inst := predicate.Mask(words, predicate.Func(func(x, y string) bool {
		diffs := 0
		for i := range x {
			if x[i] != y[i] {
				diffs++
			}
		}
		return diffs == 1
	}), nil)
	p, err := motif.NewPairIndices(words, motif.DNA(), inst)
	if err != nil {
		tst.Fatal("Unexpected error:", err)
	}
	mono := []float64{0.1, 0.2, 0.3, 0.4}
	w := WordWeightMatrix(p, inst, mono)
	i, _ := words.Index("TT")
	j, _ := words.Index("TG")
	if !appreq(w.At(i, j), 0.4) {
		tst.Error("Expected destination-monomer probability 0.4, got", w.At(i, j))
	}
	k, _ := words.Index("GG")
	if w.At(i, k) != 0 {
		tst.Error("Non-instantaneous entries should be zero")
	}
}
