package model

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/bio"
	"bitbucket.org/Davydov/smodel/motif"
	"bitbucket.org/Davydov/smodel/predicate"
)

func mustParse(s string) predicate.Predicate {
	p, err := predicate.Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func baseKind() kind {
	return kind{
		isInst: isInstantaneousDefault,
		predefined: func(a *motif.Alphabet) map[string]predicate.Predicate {
			return map[string]predicate.Predicate{
				"indel": mustParse("-/?"),
			}
		},
	}
}

func nucleotideKind() kind {
	return kind{
		isInst: isInstantaneousDefault,
		predefined: func(a *motif.Alphabet) map[string]predicate.Predicate {
			return map[string]predicate.Predicate{
				"transition":   mustParse("R/R|Y/Y"),
				"transversion": mustParse("R/Y"),
				"indel":        mustParse("-/?"),
			}
		},
	}
}

// isInstantaneousCodon treats any exchange with the full gap codon as
// instantaneous; otherwise a single nucleotide must differ.
func isInstantaneousCodon(gap, x, y string) bool {
	if x == gap || y == gap {
		return x != y
	}
	diffs := 0
	for i := 0; i < len(x); i++ {
		if x[i] != y[i] {
			diffs++
		}
	}
	return diffs == 1
}

func codonKind() kind {
	return kind{
		isInst: isInstantaneousCodon,
		predefined: func(a *motif.Alphabet) map[string]predicate.Predicate {
			gap := a.Gap()
			silent := predicate.Func(func(x, y string) bool {
				return x != gap && y != gap && bio.GeneticCode[x] == bio.GeneticCode[y]
			})
			replacement := predicate.Func(func(x, y string) bool {
				return x != gap && y != gap && bio.GeneticCode[x] != bio.GeneticCode[y]
			})
			return map[string]predicate.Predicate{
				"transition":   mustParse("R/R|Y/Y"),
				"transversion": mustParse("R/Y"),
				"indel":        mustParse("?/-"),
				"silent":       predicate.Named{Label: "silent", Pred: silent},
				"replacement":  predicate.Named{Label: "replacement", Pred: replacement},
			}
		},
	}
}

// Nucleotide creates a nucleotide substitution model with the
// transition/transversion/indel predicate vocabulary.
func Nucleotide(spec Spec) (*Model, error) {
	return construct(motif.DNA(), spec, nucleotideKind())
}

// Dinucleotide creates a model over pairs of nucleotides.
func Dinucleotide(spec Spec) (*Model, error) {
	if spec.WordLength == 0 && spec.MotifLength == 0 {
		spec.MotifLength = 2
	}
	return construct(motif.DNA(), spec, nucleotideKind())
}

// Codon creates a model over the sense codons of the standard genetic
// code, with the silent/replacement predicate vocabulary.
func Codon(spec Spec) (*Model, error) {
	return construct(motif.Codon(), spec, codonKind())
}

// Protein creates an amino-acid substitution model.
func Protein(withSelenocysteine bool, spec Spec) (*Model, error) {
	return construct(motif.Protein(withSelenocysteine), spec, baseKind())
}

// EmpiricalProtein creates a protein model from an empirical
// exchangeability matrix and its equilibrium frequencies, such as
// those read by bio.ReadPAMLMatrix. Alignment gaps are recoded as an
// ambiguous state.
func EmpiricalProtein(q *mat64.Dense, freqs []float64, spec Spec) (*Model, error) {
	spec.RateMatrix = q
	spec.ModelGaps = false
	spec.RecodeGaps = true
	if freqs != nil {
		spec.MotifProbs = freqs
	}
	return construct(motif.Protein(false), spec, baseKind())
}
