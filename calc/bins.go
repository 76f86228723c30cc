package calc

import (
	"fmt"

	"bitbucket.org/Davydov/smodel/dist"
)

// defaultRateMax bounds free rate and increment parameters; optimizers
// behave badly on unbounded rate scales.
const defaultRateMax = 100

// Partition is a probability vector on the simplex. Each component is
// backed by a free ratio leaf; the value is the normalized ratios so
// any leaf setting yields a valid distribution.
type Partition struct {
	*CalcNode
	params []*Param
}

// Params returns the ratio leaves.
func (p *Partition) Params() []*Param { return p.params }

// Probs returns the normalized probability vector.
func (p *Partition) Probs() []float64 { return Vector(p) }

// NewPartition registers a k-component simplex node named name, with
// ratio leaves name_0 .. name_{k-1}. defaults may be nil for a uniform
// start.
func (g *Graph) NewPartition(name string, k int, defaults []float64, dims ...Dim) *Partition {
	raw := make([]float64, k)
	params := make([]*Param, k)
	deps := make([]Node, k)
	for i := 0; i < k; i++ {
		if defaults != nil {
			raw[i] = defaults[i]
		} else {
			raw[i] = 1
		}
		p := g.NewParam(fmt.Sprintf("%s_%d", name, i), &raw[i], dims...)
		p.SetMin(1e-9)
		p.SetMax(defaultRateMax)
		params[i] = p
		deps[i] = p
	}
	n := g.NewCalc(name, func() interface{} {
		sum := 0.0
		for _, r := range raw {
			sum += r
		}
		probs := make([]float64, k)
		for i, r := range raw {
			probs[i] = r / sum
		}
		return probs
	}, deps, dims...)
	return &Partition{CalcNode: n, params: params}
}

// NewWeightedPartition registers per-bin rates constrained so the
// probability-weighted mean rate is one; the model scale stays
// interpretable when bin probabilities move. probs must be a
// []float64-valued node with one entry per rate leaf.
func (g *Graph) NewWeightedPartition(name string, k int, probs Node, dims ...Dim) *CalcNode {
	raw := make([]float64, k)
	deps := make([]Node, 0, k+1)
	for i := 0; i < k; i++ {
		raw[i] = 1
		p := g.NewParam(fmt.Sprintf("%s_%d", name, i), &raw[i], dims...)
		p.SetMin(1e-9)
		p.SetMax(defaultRateMax)
		deps = append(deps, p)
	}
	deps = append(deps, probs)
	return g.NewCalc(name, func() interface{} {
		w := Vector(probs)
		mean := 0.0
		for i, r := range raw {
			mean += w[i] * r
		}
		rates := make([]float64, k)
		for i, r := range raw {
			rates[i] = r / mean
		}
		return rates
	}, deps, dims...)
}

// NewMonotonic registers a strictly ordered value sequence: a free
// base leaf plus non-negative increment leaves. The value is the
// cumulative sums, so value_0 <= value_1 <= ... holds for any leaf
// setting.
func (g *Graph) NewMonotonic(name string, k int, base float64, dims ...Dim) *CalcNode {
	raw := make([]float64, k)
	deps := make([]Node, k)
	raw[0] = base
	p := g.NewParam(fmt.Sprintf("%s_0", name), &raw[0], dims...)
	p.SetMin(1e-9)
	p.SetMax(defaultRateMax)
	deps[0] = p
	for i := 1; i < k; i++ {
		p := g.NewParam(fmt.Sprintf("%s_d%d", name, i), &raw[i], dims...)
		p.SetMin(0)
		p.SetMax(defaultRateMax)
		deps[i] = p
	}
	return g.NewCalc(name, func() interface{} {
		vals := make([]float64, k)
		acc := 0.0
		for i, r := range raw {
			acc += r
			vals[i] = acc
		}
		return vals
	}, deps, dims...)
}

// BinRates builds the per-bin rate node for a rate-heterogeneity
// distribution.
type BinRates interface {
	String() string
	// Rates registers the rate node named name with k bins. probs
	// is the bin-probability node; implementations that derive
	// probabilities themselves may ignore it.
	Rates(g *Graph, name string, k int, probs Node) Node
}

// FreeRates parameterizes the bin rates as a free monotonically
// ordered sequence, keeping bins distinguishable during optimization.
type FreeRates struct{}

func (FreeRates) String() string { return "free" }

// Rates implements BinRates.
func (FreeRates) Rates(g *Graph, name string, k int, probs Node) Node {
	return g.NewMonotonic(name, k, 1, DimBin)
}

// GammaRates derives bin rates from a discretized gamma distribution
// with a single shape leaf; bins have equal probability and unit mean
// by construction.
type GammaRates struct {
	// UseMedian switches from category means to category medians.
	UseMedian bool
}

func (d GammaRates) String() string {
	if d.UseMedian {
		return "gamma(median)"
	}
	return "gamma"
}

// Rates implements BinRates.
func (d GammaRates) Rates(g *Graph, name string, k int, probs Node) Node {
	alpha := 1.0
	p := g.NewParam(name+"_alpha", &alpha)
	p.SetMin(1e-2)
	p.SetMax(defaultRateMax)
	tmp := make([]float64, k)
	res := make([]float64, k)
	return g.NewCalc(name, func() interface{} {
		rates := dist.DiscreteGamma(alpha, alpha, k, d.UseMedian, tmp, res)
		out := make([]float64, k)
		copy(out, rates)
		return out
	}, []Node{p}, DimBin)
}
