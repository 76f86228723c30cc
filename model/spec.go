package model

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/calc"
	"bitbucket.org/Davydov/smodel/predicate"
)

// Rule names a predicate for a rate parameter or a scale rule. Either
// Pred is set directly, or Expr names a predefined predicate
// ("transition", "silent", ...) or holds a parsable change expression
// ("R/Y", "-/?"). An empty Name defaults to the expression or the
// predicate's own description.
type Rule struct {
	Name string
	Expr string
	Pred predicate.Predicate
}

// Spec is the construction-time configuration of a substitution
// model. Use DefaultSpec for the usual defaults (automatic branch
// length scaling on).
type Spec struct {
	// Name labels the model in reports.
	Name string

	// Predicates defines the named rate parameters, in parameter
	// order.
	Predicates []Rule
	// Scales defines rules used only for reporting scaled branch
	// lengths; they are not validated as parameters.
	Scales []Rule

	// MotifProbs is an explicit prior over the motif-probability
	// alphabet (or over the full word alphabet, which is
	// overspecified and gets recoded). Nil means estimate from
	// data.
	MotifProbs []float64
	// EqualMotifProbs requests a flat prior; incompatible with an
	// explicit MotifProbs.
	EqualMotifProbs bool
	// MotifProbsFromData treats an explicit MotifProbs as initial
	// values only.
	MotifProbsFromData bool
	// MprobModel selects the motif-probability factorization:
	// "" for per-motif probabilities, "monomer" for a single
	// monomer distribution, "monomers" for position-specific
	// monomer distributions.
	MprobModel string

	// RateMatrix supplies an empirical exchangeability matrix
	// instead of (or on top of) predicates.
	RateMatrix *mat64.Dense

	// WordLength builds a word alphabet over the supplied monomer
	// alphabet; MotifLength expands an existing alphabet without
	// switching to monomer probabilities. They are mutually
	// exclusive.
	WordLength  int
	MotifLength int

	// ModelGaps includes the gap motif as a Markov state.
	// RecodeGaps treats alignment gaps as an ambiguous state
	// instead.
	ModelGaps  bool
	RecodeGaps bool

	// DoScaling normalizes the rate matrix so one branch-length
	// unit is one expected substitution.
	DoScaling bool
	// WithRate adds the per-bin rate multiplier on branch lengths.
	WithRate bool

	// Motifs restricts the alphabet to a subset.
	Motifs []string

	// OrderedParams are forced into a monotonically ordered
	// sequence across bins; PartitionedParams vary freely per edge
	// and per bin around a weighted mean of one. Ordered params are
	// implicitly partitioned.
	OrderedParams     []string
	PartitionedParams []string
	// Distribution picks the ordered-parameter distribution; nil
	// means free (monotonic) rates.
	Distribution calc.BinRates
	// NBins is the number of rate-heterogeneity categories
	// (default 1).
	NBins int

	// Edges and Loci name the axes the parameter graph is built
	// over; empty means a single unnamed edge or locus.
	Edges []string
	Loci  []string
}

// DefaultSpec returns a Spec with scaling enabled.
func DefaultSpec() Spec {
	return Spec{DoScaling: true}
}
