// Package motif provides motif alphabets for Markov substitution
// models. A motif is a fixed-length string state: a single monomer
// ('A'), or a word built from monomers ('ATG').
package motif

import (
	"fmt"
	"strings"

	"bitbucket.org/Davydov/smodel/bio"
)

// MaxStates is the maximum number of states supported; the state
// index has to fit into a packed 6-bit representation.
const MaxStates = 64

// AlphabetSizeError is returned when an alphabet exceeds MaxStates.
type AlphabetSizeError struct {
	Name string
	Size int
}

func (e *AlphabetSizeError) Error() string {
	return fmt.Sprintf("alphabet %s has %d motifs, maximum is %d", e.Name, e.Size, MaxStates)
}

// Alphabet is an ordered duplicate-free sequence of motifs with a
// designated gap motif. Word alphabets keep a reference to the
// monomer alphabet they are built from. Immutable once constructed.
type Alphabet struct {
	name     string
	motifs   []string
	index    map[string]int
	gap      string
	motifLen int
	monomers *Alphabet
	degen    map[byte]string
}

// New creates an alphabet from a list of motifs. All motifs must have
// the same length and be unique. The gap motif is not included as a
// state; use WithGap for that.
func New(name string, motifs []string, gapChar byte) (*Alphabet, error) {
	if len(motifs) == 0 {
		return nil, fmt.Errorf("alphabet %s has no motifs", name)
	}
	a := &Alphabet{
		name:     name,
		motifs:   motifs,
		index:    make(map[string]int, len(motifs)),
		motifLen: len(motifs[0]),
		gap:      strings.Repeat(string(gapChar), len(motifs[0])),
	}
	for i, m := range motifs {
		if len(m) != a.motifLen {
			return nil, fmt.Errorf("motif %s length mismatch in alphabet %s", m, name)
		}
		if _, ok := a.index[m]; ok {
			return nil, fmt.Errorf("duplicate motif %s in alphabet %s", m, name)
		}
		a.index[m] = i
	}
	return a, nil
}

// DNA returns the nucleotide alphabet in TCAG order.
func DNA() *Alphabet {
	a, _ := New("dna", []string{"T", "C", "A", "G"}, '-')
	a.degen = map[byte]string{
		'R': "AG", 'Y': "TC", 'W': "TA", 'S': "CG", 'K': "TG", 'M': "CA",
		'B': "TCG", 'D': "TAG", 'H': "TCA", 'V': "CAG", 'N': "TCAG",
		'?': "TCAG-", '-': "-",
	}
	return a
}

// RNA returns the RNA alphabet in UCAG order.
func RNA() *Alphabet {
	a, _ := New("rna", []string{"U", "C", "A", "G"}, '-')
	a.degen = map[byte]string{
		'R': "AG", 'Y': "UC", 'W': "UA", 'S': "CG", 'K': "UG", 'M': "CA",
		'B': "UCG", 'D': "UAG", 'H': "UCA", 'V': "CAG", 'N': "UCAG",
		'?': "UCAG-", '-': "-",
	}
	return a
}

const proteinLetters = "ACDEFGHIKLMNPQRSTVWY"

// Protein returns the amino-acid alphabet; selenocysteine (U) is
// appended when requested.
func Protein(withSelenocysteine bool) *Alphabet {
	letters := proteinLetters
	if withSelenocysteine {
		letters += "U"
	}
	motifs := make([]string, len(letters))
	for i := range motifs {
		motifs[i] = string(letters[i])
	}
	a, _ := New("protein", motifs, '-')
	a.degen = map[byte]string{
		'X': letters,
		'?': letters + "-",
		'-': "-",
	}
	return a
}

// Codon returns the alphabet of sense codons for the standard genetic
// code in TCAG enumeration order, with DNA as the monomer alphabet.
func Codon() *Alphabet {
	motifs := make([]string, 0, 61)
	for codon := range bio.GetCodons() {
		if bio.IsStopCodon(codon) {
			continue
		}
		motifs = append(motifs, codon)
	}
	a, _ := New("codon", motifs, '-')
	a.monomers = DNA()
	return a
}

// Name returns the alphabet name.
func (a *Alphabet) Name() string { return a.name }

// Len returns the number of motifs.
func (a *Alphabet) Len() int { return len(a.motifs) }

// Motifs returns the ordered motif list. The returned slice must not
// be modified.
func (a *Alphabet) Motifs() []string { return a.motifs }

// Motif returns the i-th motif.
func (a *Alphabet) Motif(i int) string { return a.motifs[i] }

// Index returns the state index of a motif.
func (a *Alphabet) Index(m string) (int, bool) {
	i, ok := a.index[m]
	return i, ok
}

// Gap returns the gap motif ("-" for dna, "---" for codons).
func (a *Alphabet) Gap() string { return a.gap }

// HasGap reports whether the gap motif is modelled as a state.
func (a *Alphabet) HasGap() bool {
	_, ok := a.index[a.gap]
	return ok
}

// MotifLen returns the motif length in characters.
func (a *Alphabet) MotifLen() int { return a.motifLen }

// Monomers returns the monomer alphabet for word alphabets, or the
// alphabet itself if it is already monomeric.
func (a *Alphabet) Monomers() *Alphabet {
	if a.monomers == nil {
		return a
	}
	return a.monomers
}

// WordLen returns the word length in monomers.
func (a *Alphabet) WordLen() int {
	return a.motifLen / a.Monomers().MotifLen()
}

// MatchSymbol reports whether an alphabet symbol (possibly a
// degenerate code) matches the given monomer character.
func (a *Alphabet) MatchSymbol(sym, monomer byte) bool {
	if sym == monomer {
		return true
	}
	if a.degen == nil {
		return false
	}
	return strings.IndexByte(a.degen[sym], monomer) >= 0
}

// WithGap returns a copy of the alphabet with the gap motif appended
// as a state. Returns the receiver if the gap is already present.
func (a *Alphabet) WithGap() *Alphabet {
	if a.HasGap() {
		return a
	}
	n := a.copyWith(append(append([]string{}, a.motifs...), a.gap))
	return n
}

// Subset returns a new alphabet keeping (or excluding) the listed
// motifs, preserving order.
func (a *Alphabet) Subset(motifs []string, excluded bool) (*Alphabet, error) {
	want := make(map[string]bool, len(motifs))
	for _, m := range motifs {
		if _, ok := a.index[m]; !ok {
			return nil, fmt.Errorf("motif %s not in alphabet %s", m, a.name)
		}
		want[m] = true
	}
	kept := make([]string, 0, len(a.motifs))
	for _, m := range a.motifs {
		if want[m] != excluded {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("empty subset of alphabet %s", a.name)
	}
	return a.copyWith(kept), nil
}

// Word returns the alphabet of all length-l words over the receiver's
// motifs, with the receiver as the monomer alphabet.
func (a *Alphabet) Word(l int) *Alphabet {
	if l <= 1 {
		return a
	}
	words := []string{""}
	for i := 0; i < l; i++ {
		next := make([]string, 0, len(words)*len(a.motifs))
		for _, w := range words {
			for _, m := range a.motifs {
				next = append(next, w+m)
			}
		}
		words = next
	}
	n, _ := New(fmt.Sprintf("%s^%d", a.name, l), words, a.gap[0])
	n.monomers = a.Monomers()
	return n
}

func (a *Alphabet) copyWith(motifs []string) *Alphabet {
	n := &Alphabet{
		name:     a.name,
		motifs:   motifs,
		index:    make(map[string]int, len(motifs)),
		gap:      a.gap,
		motifLen: a.motifLen,
		monomers: a.monomers,
		degen:    a.degen,
	}
	for i, m := range motifs {
		n.index[m] = i
	}
	return n
}

// CheckSize verifies the state-packing limit.
func (a *Alphabet) CheckSize() error {
	if a.Len() > MaxStates {
		return &AlphabetSizeError{Name: a.name, Size: a.Len()}
	}
	return nil
}
