// Package calc provides the lazy computation graph tying model
// parameters, motif probabilities, rate matrices and transition
// probabilities together for numerical optimization. Nodes are named,
// memoized and recomputed only when a leaf they depend on changes. A
// graph is owned by one evaluation context at a time; concurrent
// evaluation of independent graphs is safe.
package calc

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gonum/matrix/mat64"
)

// Dim is an axis along which a quantity may vary independently.
type Dim string

// Dimension axes.
const (
	DimEdge     Dim = "edge"
	DimLocus    Dim = "locus"
	DimBin      Dim = "bin"
	DimPosition Dim = "position"
)

// Node is a named quantity in the computation graph.
type Node interface {
	Name() string
	Dimensions() []Dim
	// Value returns the current value, recomputing it if any
	// dependency changed since the last evaluation.
	Value() interface{}
	addDependent(d dependent)
}

type dependent interface {
	invalidate()
}

type base struct {
	name       string
	dims       []Dim
	dependents []dependent
}

func (b *base) Name() string       { return b.name }
func (b *base) Dimensions() []Dim  { return b.dims }
func (b *base) addDependent(d dependent) {
	b.dependents = append(b.dependents, d)
}

func (b *base) notify() {
	for _, d := range b.dependents {
		d.invalidate()
	}
}

// Param is a free scalar leaf parameter. The external optimizer
// drives the model by setting leaf values; identical leaf values
// always yield identical downstream outputs.
type Param struct {
	base
	ptr      *float64
	min, max float64
}

// Get returns the parameter value.
func (p *Param) Get() float64 { return *p.ptr }

// Set changes the parameter value and invalidates the dependents.
// Setting the current value again is a no-op.
func (p *Param) Set(v float64) {
	if *p.ptr == v {
		return
	}
	*p.ptr = v
	p.notify()
}

// SetMin sets the lower bound.
func (p *Param) SetMin(min float64) { p.min = min }

// SetMax sets the upper bound.
func (p *Param) SetMax(max float64) { p.max = max }

// GetMin returns the lower bound.
func (p *Param) GetMin() float64 { return p.min }

// GetMax returns the upper bound.
func (p *Param) GetMax() float64 { return p.max }

// InRange reports whether the value is within bounds.
func (p *Param) InRange() bool {
	return *p.ptr >= p.min && *p.ptr <= p.max
}

// Value implements Node.
func (p *Param) Value() interface{} { return *p.ptr }

// String formats the current value.
func (p *Param) String() string {
	return strconv.FormatFloat(*p.ptr, 'f', 6, 64)
}

// Const is a fixed-value node.
type Const struct {
	base
	v interface{}
}

// Value implements Node.
func (c *Const) Value() interface{} { return c.v }

// CalcNode is a pure function of its dependencies, memoized until one
// of them changes.
type CalcNode struct {
	base
	f     func() interface{}
	v     interface{}
	stale bool
}

// Value implements Node.
func (n *CalcNode) Value() interface{} {
	if n.stale {
		n.v = n.f()
		n.stale = false
	}
	return n.v
}

func (n *CalcNode) invalidate() {
	if !n.stale {
		n.stale = true
		n.notify()
	}
}

// Graph is a registry of named computation nodes forming a DAG.
type Graph struct {
	nodes map[string]Node
	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]Node)}
}

func (g *Graph) register(n Node) {
	if _, ok := g.nodes[n.Name()]; ok {
		panic(fmt.Sprintf("duplicate node name %q", n.Name()))
	}
	g.nodes[n.Name()] = n
	g.order = append(g.order, n.Name())
}

// Node returns a node by name, nil if absent.
func (g *Graph) Node(name string) Node { return g.nodes[name] }

// Has reports whether a node exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Names returns node names in registration order.
func (g *Graph) Names() []string { return g.order }

// Leaves returns the free parameters in registration order.
func (g *Graph) Leaves() (leaves []*Param) {
	for _, name := range g.order {
		if p, ok := g.nodes[name].(*Param); ok {
			leaves = append(leaves, p)
		}
	}
	return
}

// Leaf returns a leaf parameter by name, nil if absent or not a leaf.
func (g *Graph) Leaf(name string) *Param {
	p, _ := g.nodes[name].(*Param)
	return p
}

// NewParam registers a free leaf parameter backed by ptr.
func (g *Graph) NewParam(name string, ptr *float64, dims ...Dim) *Param {
	p := &Param{
		base: base{name: name, dims: dims},
		ptr:  ptr,
		min:  math.Inf(-1),
		max:  math.Inf(+1),
	}
	g.register(p)
	return p
}

// NewConst registers a constant node.
func (g *Graph) NewConst(name string, v interface{}, dims ...Dim) *Const {
	c := &Const{base: base{name: name, dims: dims}, v: v}
	g.register(c)
	return c
}

// NewCalc registers a memoized function node depending on deps.
func (g *Graph) NewCalc(name string, f func() interface{}, deps []Node, dims ...Dim) *CalcNode {
	n := &CalcNode{
		base:  base{name: name, dims: dims},
		f:     f,
		stale: true,
	}
	for _, d := range deps {
		d.addDependent(n)
	}
	g.register(n)
	return n
}

// Float extracts a scalar node value.
func Float(n Node) float64 { return n.Value().(float64) }

// Vector extracts a []float64 node value.
func Vector(n Node) []float64 { return n.Value().([]float64) }

// Vectors extracts a [][]float64 node value.
func Vectors(n Node) [][]float64 { return n.Value().([][]float64) }

// Matrix extracts a matrix node value.
func Matrix(n Node) *mat64.Dense { return n.Value().(*mat64.Dense) }
