package motif

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// MultiPositionError reports an instantaneous pair differing in more
// than one position. This is an internal invariant violation: it
// indicates a bug in mask construction, not bad user input.
type MultiPositionError struct {
	From, To string
}

func (e *MultiPositionError) Error() string {
	return fmt.Sprintf("instantaneous pair %s/%s differs in more than one position", e.From, e.To)
}

// TupleIndices maps between a word alphabet and its monomer alphabet.
// M2W[i][j] is the monomer index at position j of word i. W2M[j][i][m]
// is 1 if word i carries monomer m at position j.
type TupleIndices struct {
	M2W [][]int
	W2M [][][]float64
}

// NewTupleIndices builds the word/monomer decomposition tables.
func NewTupleIndices(words, monomers *Alphabet) (*TupleIndices, error) {
	size := words.Len()
	length := words.WordLen()
	mlen := monomers.MotifLen()
	t := &TupleIndices{
		M2W: make([][]int, size),
		W2M: make([][][]float64, length),
	}
	for j := 0; j < length; j++ {
		t.W2M[j] = make([][]float64, size)
		for i := 0; i < size; i++ {
			t.W2M[j][i] = make([]float64, monomers.Len())
		}
	}
	for i := 0; i < size; i++ {
		word := words.Motif(i)
		t.M2W[i] = make([]int, length)
		for j := 0; j < length; j++ {
			monomer := word[j*mlen : (j+1)*mlen]
			mi, ok := monomers.Index(monomer)
			if !ok {
				return nil, fmt.Errorf("monomer %s of word %s not in alphabet %s",
					monomer, word, monomers.Name())
			}
			t.M2W[i][j] = mi
			t.W2M[j][i][mi] = 1
		}
	}
	return t, nil
}

// PairIndices locates, for every instantaneous word pair, the single
// differing position and the monomer the word mutates to.
// Non-instantaneous pairs hold a placeholder 0 so gather operations
// never index out of range; the mask decides which entries are live.
type PairIndices struct {
	Posn  [][]int
	Motif [][]int
	Mask  *mat64.Dense
}

// NewPairIndices builds the per-pair mutation tables from the
// instantaneous mask.
func NewPairIndices(words, monomers *Alphabet, mask *mat64.Dense) (*PairIndices, error) {
	size := words.Len()
	length := words.WordLen()
	mlen := monomers.MotifLen()
	p := &PairIndices{
		Posn:  make([][]int, size),
		Motif: make([][]int, size),
		Mask:  mask,
	}
	for i := 0; i < size; i++ {
		p.Posn[i] = make([]int, size)
		p.Motif[i] = make([]int, size)
		oldWord := words.Motif(i)
		for j := 0; j < size; j++ {
			if mask.At(i, j) == 0 {
				continue
			}
			newWord := words.Motif(j)
			diff := -1
			for k := 0; k < length; k++ {
				if oldWord[k*mlen:(k+1)*mlen] != newWord[k*mlen:(k+1)*mlen] {
					if diff >= 0 {
						return nil, &MultiPositionError{From: oldWord, To: newWord}
					}
					diff = k
				}
			}
			if diff < 0 {
				return nil, &MultiPositionError{From: oldWord, To: newWord}
			}
			mi, ok := monomers.Index(newWord[diff*mlen : (diff+1)*mlen])
			if !ok {
				return nil, fmt.Errorf("monomer of word %s not in alphabet %s",
					newWord, monomers.Name())
			}
			p.Posn[i][j] = diff
			p.Motif[i][j] = mi
		}
	}
	return p, nil
}
