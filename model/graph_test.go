package model

import (
	"testing"

	"bitbucket.org/Davydov/smodel/calc"
)

func TestInstanceRateMatrix(tst *testing.T) {
	spec := DefaultSpec()
	spec.EqualMotifProbs = true
	spec.Predicates = []Rule{{Expr: "transition"}}
	m, err := Nucleotide(spec)
	if err != nil {
		tst.Fatal("Construction error:", err)
	}
	in := m.NewInstance()
	if err = in.SetParam("transition", 2); err != nil {
		tst.Fatal("SetParam error:", err)
	}

	q, scale := in.Q("", "", 0)
	if !appreq(scale, 1) {
		tst.Error("Expected scale 1, got", scale)
	}
	halves, quarters := 0, 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				continue
			}
			switch {
			case appreq(q.At(i, j), 0.5):
				halves++
			case appreq(q.At(i, j), 0.25):
				quarters++
			default:
				tst.Error("Unexpected entry:", q.At(i, j))
			}
		}
	}
	if halves != 4 || quarters != 8 {
		tst.Errorf("Expected 4 transition and 8 transversion entries, got %d and %d", halves, quarters)
	}

	wp := in.WordProbs("")
	for _, p := range wp {
		if !appreq(p, 0.25) {
			tst.Error("Expected uniform word probabilities, got", wp)
		}
	}

	in.SetLength("", 0.5)
	p, err := in.Psubs("", "", 0)
	if err != nil {
		tst.Fatal("Psubs error:", err)
	}
	for i := 0; i < 4; i++ {
		sum := 0.0
		for j := 0; j < 4; j++ {
			sum += p.At(i, j)
		}
		if !appreq(sum, 1) {
			tst.Error("Transition probabilities should sum to one, got", sum)
		}
	}
}

func TestInstanceMemoization(tst *testing.T) {
	spec := DefaultSpec()
	spec.EqualMotifProbs = true
	spec.Predicates = []Rule{{Expr: "transition"}}
	m, err := Nucleotide(spec)
	if err != nil {
		tst.Fatal("Construction error:", err)
	}
	in := m.NewInstance()

	q1, _ := in.Q("", "", 0)
	q2, _ := in.Q("", "", 0)
	if q1 != q2 {
		tst.Error("Q should be memoized between evaluations")
	}
	if err := in.SetParam("transition", 3); err != nil {
		tst.Fatal("SetParam error:", err)
	}
	q3, _ := in.Q("", "", 0)
	if q1 == q3 {
		tst.Error("Q should be recomputed after a parameter change")
	}
	// identical leaf values yield identical outputs
	if !appreq(q3.At(0, 1), 3*0.25) {
		tst.Error("Wrong recomputed entry:", q3.At(0, 1))
	}
}

func TestInstanceBins(tst *testing.T) {
	spec := DefaultSpec()
	spec.EqualMotifProbs = true
	spec.Predicates = []Rule{{Expr: "transition"}}
	spec.NBins = 4
	spec.OrderedParams = []string{"rate"}
	spec.Distribution = calc.GammaRates{}
	m, err := Nucleotide(spec)
	if err != nil {
		tst.Fatal("Construction error:", err)
	}
	in := m.NewInstance()

	probs := in.BinProbs()
	if len(probs) != 4 {
		tst.Fatal("Expected 4 bin probabilities")
	}
	for _, p := range probs {
		if !appreq(p, 0.25) {
			tst.Error("Expected uniform bin probabilities, got", probs)
		}
	}

	rates := in.BinRates()
	if len(rates) != 4 {
		tst.Fatal("Expected 4 bin rates")
	}
	mean := 0.0
	for i, r := range rates {
		mean += r * probs[i]
		if i > 0 && r < rates[i-1] {
			tst.Error("Bin rates should be ordered:", rates)
		}
	}
	if !appreq(mean, 1) {
		tst.Error("Bin rates should average to one, got", mean)
	}

	// slow bins stay closer to the identity matrix
	in.SetLength("", 0.3)
	p0, err := in.Psubs("", "", 0)
	if err != nil {
		tst.Fatal("Psubs error:", err)
	}
	p3, err := in.Psubs("", "", 3)
	if err != nil {
		tst.Fatal("Psubs error:", err)
	}
	if p0.At(0, 0) <= p3.At(0, 0) {
		tst.Error("Slow bin should change less:", p0.At(0, 0), p3.At(0, 0))
	}
}

func TestInstanceLocusEdgeKeys(tst *testing.T) {
	spec := DefaultSpec()
	spec.EqualMotifProbs = true
	spec.Predicates = []Rule{{Expr: "transition"}}
	spec.OrderedParams = []string{"transition"}
	spec.Edges = []string{"", "a"}
	spec.Loci = []string{"", "a"}
	m, err := Nucleotide(spec)
	if err != nil {
		tst.Fatal("Construction error:", err)
	}
	in := m.NewInstance()
	if err = in.SetEdgeParam("transition", "a", 3); err != nil {
		tst.Fatal("SetEdgeParam error:", err)
	}
	// locus "" on edge "a" and locus "a" on edge "" must not share a
	// Q node
	qa, _ := in.Q("", "a", 0)
	qb, _ := in.Q("a", "", 0)
	if !appreq(qa.At(0, 1), 3*0.25) {
		tst.Error("Wrong transition entry on the named edge:", qa.At(0, 1))
	}
	if !appreq(qb.At(0, 1), 0.25) {
		tst.Error("Locus and edge names must not alias:", qb.At(0, 1))
	}
}

func TestInstancePartitioned(tst *testing.T) {
	spec := DefaultSpec()
	spec.EqualMotifProbs = true
	spec.Predicates = []Rule{{Expr: "transition"}}
	spec.NBins = 2
	spec.OrderedParams = []string{"transition"}
	spec.Edges = []string{"a", "b"}
	m, err := Nucleotide(spec)
	if err != nil {
		tst.Fatal("Construction error:", err)
	}
	in := m.NewInstance()

	if err = in.SetEdgeParam("transition", "a", 2); err != nil {
		tst.Fatal("SetEdgeParam error:", err)
	}
	if err = in.SetEdgeParam("transition", "nosuch", 2); err == nil {
		tst.Error("Expected an error for an unknown edge")
	}
	if err = in.SetParam("transition", 2); err == nil {
		tst.Error("Partitioned parameter should not be shared")
	}

	qa, _ := in.Q("", "a", 0)
	qb, _ := in.Q("", "b", 0)
	if appreq(qa.At(0, 1), qb.At(0, 1)) {
		tst.Error("Edges should have independent parameter values")
	}

	// the ordered parameter ascends across bins
	q0, _ := in.Q("", "a", 0)
	g := in.Graph.Leaf("transition_bins_d1")
	if g == nil {
		tst.Fatal("Missing bin increment leaf")
	}
	g.Set(1.5)
	q1, _ := in.Q("", "a", 1)
	if q1.At(0, 1) <= q0.At(0, 1) {
		tst.Error("Second bin should have a larger ordered value")
	}
}
