package model

import (
	"fmt"
	"strings"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/calc"
	"bitbucket.org/Davydov/smodel/rate"
)

// QValue is the value of a rate-matrix graph node: the completed Q,
// its expected-substitution scale and the exponentiation service
// bound to it.
type QValue struct {
	Q     *mat64.Dense
	Scale float64
	Exp   rate.Exponentiator
}

// Instance is an evaluable parameter graph built for one model. Leaf
// values are set by an external optimizer; identical leaf values
// always yield identical outputs.
type Instance struct {
	Model *Model
	Graph *calc.Graph

	// Exponentiator creates the transition-probability service for
	// a fresh Q matrix; nil selects the built-in Padé
	// implementation.
	Exponentiator func(q *mat64.Dense, scale float64) rate.Exponentiator

	bprobs   *calc.Partition
	binRates calc.Node

	mprobs  map[string][]*calc.Partition
	wprobs  map[string]calc.Node
	weights map[string]calc.Node

	sharedLeaf map[string]*calc.Param
	edgeLeaf   map[string]map[string]*calc.Param
	binFactor  map[string]calc.Node
	lengths    map[string]*calc.Param

	qnodes map[qKey]calc.Node
}

// qKey addresses a Q node; a plain struct key so a locus named like an
// edge can never alias another node.
type qKey struct {
	locus, edge string
	bin         int
}

// tag prefixes a dimension value, empty values stay empty so unnamed
// axes do not clutter node names.
func tag(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func nodeName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_")
}

// NewInstance builds the computation graph: motif probabilities feed
// word probabilities and the weight matrix, rate parameters feed the
// per-bin Q matrices, and branch length times the bin rate gives the
// distance fed into exponentiation.
func (m *Model) NewInstance() *Instance {
	g := calc.NewGraph()
	in := &Instance{
		Model:      m,
		Graph:      g,
		mprobs:     make(map[string][]*calc.Partition),
		wprobs:     make(map[string]calc.Node),
		weights:    make(map[string]calc.Node),
		sharedLeaf: make(map[string]*calc.Param),
		edgeLeaf:   make(map[string]map[string]*calc.Param),
		binFactor:  make(map[string]calc.Node),
		lengths:    make(map[string]*calc.Param),
		qnodes:     make(map[qKey]calc.Node),
	}

	if m.nbins > 1 {
		in.bprobs = g.NewPartition("bprobs", m.nbins, nil, calc.DimBin)
		if m.withRate {
			in.binRates = m.distribution.Rates(g, "rate", m.nbins, in.bprobs)
		}
	}

	for _, locus := range m.loci {
		in.makeProbNodes(locus)
	}

	anyPartitioned := false
	for _, name := range m.paramNames {
		if m.partitionedParams[name] {
			anyPartitioned = true
			deflt := 1.0
			in.edgeLeaf[name] = make(map[string]*calc.Param)
			for _, edge := range m.edges {
				v := deflt
				in.edgeLeaf[name][edge] = g.NewParam(
					nodeName(name, tag("e", edge)), &v, calc.DimEdge, calc.DimLocus)
			}
			if in.bprobs != nil {
				if m.orderedParams[name] {
					in.binFactor[name] = m.distribution.Rates(
						g, nodeName(name, "bins"), m.nbins, in.bprobs)
				} else {
					in.binFactor[name] = g.NewWeightedPartition(
						nodeName(name, "partn"), m.nbins, in.bprobs, calc.DimBin)
				}
			}
		} else {
			v := 1.0
			in.sharedLeaf[name] = g.NewParam(name, &v)
		}
	}

	for _, edge := range m.edges {
		v := 1.0
		in.lengths[edge] = g.NewParam(nodeName("length", tag("e", edge)), &v, calc.DimEdge)
		in.lengths[edge].SetMin(0)
	}

	for _, locus := range m.loci {
		edges := []string{""}
		bins := 1
		if anyPartitioned {
			edges = m.edges
			bins = m.nbins
		}
		for _, edge := range edges {
			for bin := 0; bin < bins; bin++ {
				in.makeQNode(locus, edge, bin)
			}
		}
	}

	return in
}

func (in *Instance) makeProbNodes(locus string) {
	m := in.Model
	g := in.Graph
	npos := 1
	dims := []calc.Dim{calc.DimLocus}
	if m.positionSpecific {
		npos = m.wordLength
		dims = append(dims, calc.DimPosition)
	}
	parts := make([]*calc.Partition, npos)
	deps := make([]calc.Node, npos)
	for p := 0; p < npos; p++ {
		var defaults []float64
		if m.motifProbs != nil {
			defaults = m.motifProbs[p%len(m.motifProbs)]
		}
		name := nodeName("mprobs", tag("l", locus))
		if m.positionSpecific {
			name = nodeName(name, fmt.Sprintf("p%d", p))
		}
		parts[p] = g.NewPartition(name, m.mprobsAlphabet.Len(), defaults, dims...)
		deps[p] = parts[p]
	}
	in.mprobs[locus] = parts

	vectors := func() [][]float64 {
		vs := make([][]float64, len(parts))
		for i, p := range parts {
			vs[i] = p.Probs()
		}
		return vs
	}

	in.wprobs[locus] = g.NewCalc(nodeName("wprobs", tag("l", locus)), func() interface{} {
		return rate.WordProbs(m.tuples, vectors()...)
	}, deps, calc.DimLocus)

	in.weights[locus] = g.NewCalc(nodeName("mprobs_matrix", tag("l", locus)), func() interface{} {
		return rate.WordWeightMatrix(m.pairs, m.instMask, vectors()...)
	}, deps, calc.DimLocus)
}

func (in *Instance) makeQNode(locus, edge string, bin int) {
	m := in.Model
	g := in.Graph
	wprobs := in.wprobs[locus]
	weight := in.weights[locus]

	deps := []calc.Node{wprobs, weight}
	for _, name := range m.paramNames {
		if leaf, ok := in.sharedLeaf[name]; ok {
			deps = append(deps, leaf)
			continue
		}
		deps = append(deps, in.edgeLeaf[name][edge])
		if f, ok := in.binFactor[name]; ok {
			deps = append(deps, f)
		}
	}

	name := nodeName("Q", tag("l", locus), tag("e", edge))
	if m.nbins > 1 {
		name = nodeName(name, fmt.Sprintf("b%d", bin))
	}
	node := g.NewCalc(name, func() interface{} {
		values := make([]float64, len(m.paramNames))
		for i, pname := range m.paramNames {
			values[i] = in.paramValue(pname, edge, bin)
		}
		q := rate.Build(m.instMaskF, m.paramIndices, values)
		rate.ApplyWeight(q, calc.Matrix(weight))
		scale := rate.Complete(q, calc.Vector(wprobs), m.doScaling)
		qv := &QValue{Q: q, Scale: scale}
		if in.Exponentiator != nil {
			qv.Exp = in.Exponentiator(q, scale)
		} else {
			qv.Exp = rate.NewEMatrix(q, scale)
		}
		return qv
	}, deps, calc.DimEdge, calc.DimBin, calc.DimLocus)
	in.qnodes[qKey{locus, edge, bin}] = node
}

func (in *Instance) paramValue(name, edge string, bin int) float64 {
	if leaf, ok := in.sharedLeaf[name]; ok {
		return leaf.Get()
	}
	v := in.edgeLeaf[name][edge].Get()
	if f, ok := in.binFactor[name]; ok {
		v *= calc.Vector(f)[bin]
	}
	return v
}

func (in *Instance) qValue(locus, edge string, bin int) *QValue {
	node, ok := in.qnodes[qKey{locus, edge, bin}]
	if !ok {
		// Q shared across edges and bins
		node = in.qnodes[qKey{locus: locus}]
	}
	return node.Value().(*QValue)
}

// Q returns the completed rate matrix and its scale.
func (in *Instance) Q(locus, edge string, bin int) (*mat64.Dense, float64) {
	qv := in.qValue(locus, edge, bin)
	return qv.Q, qv.Scale
}

// Psubs returns the transition-probability matrix for the edge's
// current branch length, multiplied by the bin rate when rate
// heterogeneity is enabled and divided by the Q scale in scaling
// mode.
func (in *Instance) Psubs(locus, edge string, bin int) (*mat64.Dense, error) {
	qv := in.qValue(locus, edge, bin)
	t := in.lengths[edge].Get()
	if in.binRates != nil {
		t *= calc.Vector(in.binRates)[bin]
	}
	if qv.Scale != 0 {
		t /= qv.Scale
	}
	return qv.Exp.Exp(nil, t)
}

// WordProbs returns the current word equilibrium distribution.
func (in *Instance) WordProbs(locus string) []float64 {
	return calc.Vector(in.wprobs[locus])
}

// MotifProbs returns the current motif-probability partitions, one
// per word position for position-specific models.
func (in *Instance) MotifProbs(locus string) []*calc.Partition {
	return in.mprobs[locus]
}

// BinProbs returns the current bin probabilities, nil for unbinned
// models.
func (in *Instance) BinProbs() []float64 {
	if in.bprobs == nil {
		return nil
	}
	return in.bprobs.Probs()
}

// BinRates returns the current per-bin rate multipliers, nil if rate
// heterogeneity is disabled.
func (in *Instance) BinRates() []float64 {
	if in.binRates == nil {
		return nil
	}
	return calc.Vector(in.binRates)
}

// Length returns the branch length of an edge.
func (in *Instance) Length(edge string) float64 {
	return in.lengths[edge].Get()
}

// SetLength sets the branch length of an edge.
func (in *Instance) SetLength(edge string, v float64) {
	in.lengths[edge].Set(v)
}

// SetParam sets a shared rate parameter.
func (in *Instance) SetParam(name string, v float64) error {
	leaf, ok := in.sharedLeaf[name]
	if !ok {
		return fmt.Errorf("no shared parameter %q", name)
	}
	leaf.Set(v)
	return nil
}

// SetEdgeParam sets a partitioned rate parameter on one edge.
func (in *Instance) SetEdgeParam(name, edge string, v float64) error {
	leaves, ok := in.edgeLeaf[name]
	if !ok {
		return fmt.Errorf("no partitioned parameter %q", name)
	}
	leaf, ok := leaves[edge]
	if !ok {
		return fmt.Errorf("no edge %q for parameter %q", edge, name)
	}
	leaf.Set(v)
	return nil
}
