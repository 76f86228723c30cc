// Package model assembles substitution models: it translates named
// pairwise predicates into a parameterized instantaneous rate matrix,
// rejects over-parameterized specifications, and wires parameters,
// motif probabilities and rate-heterogeneity bins into a lazy
// computation graph ready for an external optimizer.
package model

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/smodel/bio"
	"bitbucket.org/Davydov/smodel/calc"
	"bitbucket.org/Davydov/smodel/motif"
	"bitbucket.org/Davydov/smodel/predicate"
	"bitbucket.org/Davydov/smodel/rate"
)

var log = logging.MustGetLogger("model")

// kind bundles the behavior subclassed per molecule type: the
// instantaneous test and the predefined predicate vocabulary.
type kind struct {
	isInst     func(gap, x, y string) bool
	predefined func(a *motif.Alphabet) map[string]predicate.Predicate
}

// Model is a parameterized continuous-time Markov substitution model.
// The masks and index tables are immutable after construction; only
// graph parameter values change during optimization.
type Model struct {
	Name string

	alphabet       *motif.Alphabet
	mprobsAlphabet *motif.Alphabet
	wordLength     int
	gapMotif       string

	recodeGaps       bool
	doScaling        bool
	withRate         bool
	positionSpecific bool

	// instMask holds 0/1 flags, instMaskF the float skeleton the
	// rate matrix is built from. They differ only for empirical
	// matrices, where instMaskF carries the exchangeabilities.
	instMask  *mat64.Dense
	instMaskF *mat64.Dense

	// Symmetric is false for non-reversible models.
	Symmetric bool

	paramNames   []string
	paramMasks   map[string]*mat64.Dense
	paramIndices [][]int
	scaleNames   []string
	scaleMasks   map[string]*mat64.Dense

	tuples *motif.TupleIndices
	pairs  *motif.PairIndices

	// motifProbs is the adapted prior, one vector per word
	// position for position-specific models; nil means estimate
	// from data.
	motifProbs         [][]float64
	motifProbsFromData bool

	orderedParams     map[string]bool
	partitionedParams map[string]bool
	distribution      calc.BinRates
	nbins             int
	edges             []string
	loci              []string

	// Warnings collects non-fatal construction diagnostics; they
	// are also mirrored to the logger.
	Warnings []string

	kind kind
}

func (m *Model) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	m.Warnings = append(m.Warnings, msg)
	log.Warning(msg)
}

// New creates a model over an explicit alphabet with the base
// predefined predicate vocabulary (indel only).
func New(alpha *motif.Alphabet, spec Spec) (*Model, error) {
	return construct(alpha, spec, baseKind())
}

func construct(alpha *motif.Alphabet, spec Spec, k kind) (m *Model, err error) {
	m = &Model{
		Name:       spec.Name,
		recodeGaps: spec.RecodeGaps,
		doScaling:  spec.DoScaling,
		kind:       k,
	}

	useMonomer := spec.MprobModel == "monomer" || spec.MprobModel == "monomers"
	m.positionSpecific = spec.MprobModel == "monomers"
	if spec.MprobModel != "" && !useMonomer {
		return nil, fmt.Errorf("unknown mprob model %q", spec.MprobModel)
	}

	// ALPHABET
	modelGaps := spec.ModelGaps
	if spec.RecodeGaps {
		if modelGaps {
			m.warnf("converting gaps to wildcards AND modeling gaps")
		} else {
			modelGaps = false
		}
	}
	if modelGaps {
		alpha = alpha.WithGap()
	}

	var mprobsAlpha *motif.Alphabet
	switch {
	case spec.WordLength > 1:
		if spec.MotifLength > 1 {
			return nil, fmt.Errorf("word length and motif length are mutually exclusive")
		}
		if spec.MprobModel == "" {
			useMonomer = true
		}
		mprobsAlpha = alpha
		alpha = alpha.Word(spec.WordLength)
		if !useMonomer {
			mprobsAlpha = alpha
		}
	default:
		if spec.MotifLength > 1 {
			alpha = alpha.Word(spec.MotifLength)
		}
		if useMonomer {
			mprobsAlpha = alpha.Monomers()
		} else {
			mprobsAlpha = alpha
		}
	}

	if spec.Motifs != nil {
		alpha, err = alpha.Subset(spec.Motifs, false)
		if err != nil {
			return nil, err
		}
		if !useMonomer {
			mprobsAlpha = alpha
		}
	}
	if err = alpha.CheckSize(); err != nil {
		return nil, err
	}

	m.alphabet = alpha
	m.mprobsAlphabet = mprobsAlpha
	m.gapMotif = alpha.Gap()
	m.wordLength = alpha.MotifLen() / mprobsAlpha.MotifLen()

	// MATRIX
	if spec.RateMatrix != nil {
		if err = m.setEmpiricalMatrix(spec.RateMatrix); err != nil {
			return nil, err
		}
		if len(spec.Predicates) > 0 {
			m.warnf("empirical model with parameters too")
		}
	} else {
		isInst := m.kind.isInst
		m.instMask = predicate.Mask(alpha, predicate.Func(func(x, y string) bool {
			return isInst(m.gapMotif, x, y)
		}), nil)
		m.instMaskF = mat64.DenseCopyOf(m.instMask)
	}

	m.Symmetric = predicate.IsSymmetrical(m.instMaskF)
	m.paramMasks = make(map[string]*mat64.Dense)
	for i, r := range spec.Predicates {
		name, mask, err := m.adaptRule(r, i)
		if err != nil {
			return nil, err
		}
		if _, ok := m.paramMasks[name]; ok {
			return nil, fmt.Errorf("duplicate predicate name %q", name)
		}
		m.paramNames = append(m.paramNames, name)
		m.paramMasks[name] = mask
	}
	if err = m.checkMasks(); err != nil {
		return nil, err
	}
	for _, name := range m.paramNames {
		mask := m.paramMasks[name]
		if !predicate.IsSymmetrical(mask) {
			m.Symmetric = false
		}
		m.paramIndices = append(m.paramIndices, predicate.Indices(mask))
	}
	if !m.Symmetric {
		m.warnf("model not reversible")
	}

	m.scaleMasks = make(map[string]*mat64.Dense)
	for i, r := range spec.Scales {
		name, mask, err := m.adaptRule(r, i)
		if err != nil {
			return nil, err
		}
		if _, ok := m.scaleMasks[name]; ok {
			return nil, fmt.Errorf("duplicate scale rule name %q", name)
		}
		m.scaleNames = append(m.scaleNames, name)
		m.scaleMasks[name] = mask
	}

	// MOTIF PROB ALPHABET MAPPING
	if useMonomer {
		if modelGaps {
			return nil, &BinConfigError{Msg: "gapped models with monomer probabilities are not possible"}
		}
		m.tuples, err = motif.NewTupleIndices(alpha, mprobsAlpha)
		if err != nil {
			return nil, err
		}
		m.pairs, err = motif.NewPairIndices(alpha, mprobsAlpha, m.instMask)
		if err != nil {
			return nil, err
		}
	}
	if m.positionSpecific && m.tuples == nil {
		return nil, &BinConfigError{Msg: "position-specific probabilities need monomer factorization"}
	}

	// MOTIF PROBS
	switch {
	case spec.EqualMotifProbs:
		if spec.MotifProbs != nil {
			return nil, fmt.Errorf("motif probs equal or provided but not both")
		}
		n := mprobsAlpha.Len()
		probs := make([]float64, n)
		for i := range probs {
			probs[i] = 1 / float64(n)
		}
		m.motifProbs, err = m.AdaptMotifProbs(probs)
	case spec.MotifProbs != nil:
		m.motifProbs, err = m.AdaptMotifProbs(spec.MotifProbs)
	}
	if err != nil {
		return nil, err
	}
	m.motifProbsFromData = m.motifProbs == nil || spec.MotifProbsFromData

	// BINS
	m.orderedParams = make(map[string]bool)
	for _, p := range spec.OrderedParams {
		m.orderedParams[p] = true
	}
	m.partitionedParams = make(map[string]bool)
	for _, p := range spec.PartitionedParams {
		m.partitionedParams[p] = true
	}
	if len(m.orderedParams) > 0 {
		for p := range m.orderedParams {
			m.partitionedParams[p] = true
		}
	} else if len(m.partitionedParams) > 0 {
		return nil, &BinConfigError{Msg: "an ordered parameter is required for a binned model"}
	}
	known := map[string]bool{"rate": true}
	for _, name := range m.paramNames {
		known[name] = true
	}
	for p := range m.partitionedParams {
		if !known[p] {
			return nil, &BinConfigError{Msg: fmt.Sprintf("unknown partitioned parameter %q", p)}
		}
	}
	m.withRate = spec.WithRate || m.orderedParams["rate"]

	m.distribution = spec.Distribution
	if m.distribution == nil {
		m.distribution = calc.FreeRates{}
	}
	m.nbins = spec.NBins
	if m.nbins < 1 {
		m.nbins = 1
	}
	m.edges = spec.Edges
	if len(m.edges) == 0 {
		m.edges = []string{""}
	}
	m.loci = spec.Loci
	if len(m.loci) == 0 {
		m.loci = []string{""}
	}

	return m, nil
}

func (m *Model) setEmpiricalMatrix(q *mat64.Dense) error {
	n := m.alphabet.Len()
	r, c := q.Dims()
	if r != n || c != n {
		return &EmpiricalMatrixError{Msg: fmt.Sprintf(
			"empirical matrix is %dx%d, alphabet has %d motifs", r, c, n)}
	}
	for i := 0; i < n; i++ {
		if q.At(i, i) != 0 {
			return &EmpiricalMatrixError{Msg: fmt.Sprintf(
				"empirical matrix has non-zero diagonal at %d", i)}
		}
	}
	m.instMaskF = mat64.DenseCopyOf(q)
	m.instMask = mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if q.At(i, j) != 0 {
				m.instMask.Set(i, j, 1)
			}
		}
	}
	return nil
}

// isInstantaneousDefault reports whether two motifs are one atomic
// substitution event apart: a single differing position, or a
// contiguous single-strand indel of any length.
func isInstantaneousDefault(gap, x, y string) bool {
	diffs := 0
	for i := 0; i < len(x); i++ {
		if x[i] != y[i] {
			diffs++
		}
	}
	return diffs == 1 || (diffs > 1 && isAnyIndel(gap, x, y))
}

// isAnyIndel reports whether the pair differs by one maximal
// contiguous run of gap characters on a single strand. A second gap
// start or a strand mismatch rejects the pair.
func isAnyIndel(gap, x, y string) bool {
	if x == y {
		return false
	}
	gapStart, gapEnd, gapStrand := -1, -1, -1
	for i := 0; i < len(x); i++ {
		g := gap[i]
		switch {
		case x[i] != y[i]:
			if x[i] != g && y[i] != g {
				// non-gap differences had their chance above
				return false
			}
			strand := 0
			if y[i] == g {
				strand = 1
			}
			switch {
			case gapStart < 0:
				gapStart = i
				gapStrand = strand
			case gapEnd >= 0 || strand != gapStrand:
				// can't start a second gap
				return false
			}
		case gapStart >= 0:
			gapEnd = i
		}
	}
	return true
}

func (m *Model) adaptRule(r Rule, ordinal int) (string, *mat64.Dense, error) {
	pred := r.Pred
	if pred == nil {
		if r.Expr == "" {
			return "", nil, fmt.Errorf("rule %q has no predicate", r.Name)
		}
		if p, ok := m.kind.predefined(m.alphabet)[r.Expr]; ok {
			pred = p
		} else {
			var err error
			pred, err = predicate.Parse(r.Expr)
			if err != nil {
				return "", nil, err
			}
		}
	}
	name := r.Name
	if name == "" {
		if r.Expr != "" {
			name = r.Expr
		} else {
			name = pred.String()
			if _, anon := pred.(predicate.Func); anon {
				// raw functions all stringify the same, number them
				name = fmt.Sprintf("%s %d", name, ordinal)
			}
		}
	}
	return name, predicate.Mask(m.alphabet, pred, m.instMask), nil
}

// checkMasks validates the predicate masks: trivially false, then (in
// scaling mode) trivially true, then mutual redundancy, then collapse
// into the overall rate. In non-scaling mode the collapse is a
// warning only.
func (m *Model) checkMasks() error {
	for _, name := range m.paramNames {
		if predicate.Sum(m.paramMasks[name]) == 0 {
			return &TriviallyFalseError{Name: name}
		}
	}
	masks := make([]*mat64.Dense, len(m.paramNames))
	for i, name := range m.paramNames {
		masks[i] = m.paramMasks[name]
	}
	withInst := append(append([]*mat64.Dense{}, masks...), m.instMask)
	if m.doScaling {
		for _, name := range m.paramNames {
			if predicate.Equal(m.paramMasks[name], m.instMask) {
				return &TriviallyTrueError{Name: name}
			}
		}
		if predicate.Redundancy(masks) > 0 {
			return &RedundancyError{Names: m.paramNames}
		}
		if predicate.Redundancy(withInst) > 0 {
			return &RedundancyError{Names: m.paramNames, Collapse: true}
		}
	} else {
		if predicate.Redundancy(masks) > 0 {
			return &RedundancyError{Names: m.paramNames}
		}
		if predicate.Redundancy(withInst) > 0 {
			m.warnf("scaling would be more efficient than these overly general predicates")
		}
	}
	return nil
}

// AdaptMotifProbs validates a probability vector against the
// motif-probability alphabet. A vector over the full word alphabet is
// overspecified: it is recoded to monomer probabilities with a
// warning. Position-specific models return one vector per word
// position.
func (m *Model) AdaptMotifProbs(probs []float64) ([][]float64, error) {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-4 {
		return nil, fmt.Errorf("motif probabilities sum to %f, not 1", sum)
	}
	switch len(probs) {
	case m.mprobsAlphabet.Len():
		if m.positionSpecific {
			result := make([][]float64, m.wordLength)
			for i := range result {
				result[i] = append([]float64{}, probs...)
			}
			return result, nil
		}
		return [][]float64{append([]float64{}, probs...)}, nil
	case m.alphabet.Len():
		if m.tuples == nil {
			break
		}
		if !m.positionSpecific {
			m.warnf("motif probabilities overspecified")
		}
		return rate.MonomerProbs(m.tuples, probs, m.positionSpecific), nil
	}
	return nil, fmt.Errorf("can't match %d probabilities to alphabet %s",
		len(probs), m.mprobsAlphabet.Name())
}

// EstimateMotifProbs sets the motif-probability prior from motif
// counts over aligned sequences. Position-specific models count whole
// words so each position keeps its own composition; AdaptMotifProbs
// then recodes the word counts position by position.
func (m *Model) EstimateMotifProbs(seqs bio.Sequences) error {
	a := m.mprobsAlphabet
	if m.positionSpecific {
		a = m.alphabet
	}
	counts := bio.CountMotifs(seqs, a.Motifs(), a.MotifLen(), m.recodeGaps)
	probs, err := bio.MotifProbsFromCounts(counts, a.Motifs())
	if err != nil {
		return err
	}
	m.motifProbs, err = m.AdaptMotifProbs(probs)
	return err
}

// Alphabet returns the model's state alphabet.
func (m *Model) Alphabet() *motif.Alphabet { return m.alphabet }

// MprobsAlphabet returns the motif-probability alphabet.
func (m *Model) MprobsAlphabet() *motif.Alphabet { return m.mprobsAlphabet }

// WordLength returns the number of monomer positions per motif.
func (m *Model) WordLength() int { return m.wordLength }

// ParamNames returns the rate-parameter names in parameter order.
func (m *Model) ParamNames() []string { return m.paramNames }

// InstantaneousMask returns the 0/1 instantaneous mask.
func (m *Model) InstantaneousMask() *mat64.Dense { return m.instMask }

// ParamMask returns the mask of a named parameter, nil if unknown.
func (m *Model) ParamMask(name string) *mat64.Dense { return m.paramMasks[name] }

// IsInstantaneous reports whether the motif pair is one substitution
// event apart.
func (m *Model) IsInstantaneous(x, y string) bool {
	return m.kind.isInst(m.gapMotif, x, y)
}

// NBins returns the number of rate-heterogeneity categories.
func (m *Model) NBins() int { return m.nbins }

// MotifProbs returns the adapted prior, nil if estimated from data.
func (m *Model) MotifProbs() [][]float64 { return m.motifProbs }
