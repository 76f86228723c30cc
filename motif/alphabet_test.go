package motif

import (
	"errors"
	"testing"
)

func TestDNA(tst *testing.T) {
	a := DNA()
	if a.Len() != 4 {
		tst.Error("Expected 4 nucleotides, got", a.Len())
	}
	want := []string{"T", "C", "A", "G"}
	for i, m := range want {
		if a.Motif(i) != m {
			tst.Error("Wrong enumeration order:", a.Motifs())
		}
	}
	if a.Gap() != "-" {
		tst.Error("Wrong gap motif:", a.Gap())
	}
	if !a.MatchSymbol('R', 'A') || !a.MatchSymbol('R', 'G') || a.MatchSymbol('R', 'T') {
		tst.Error("Wrong purine matching")
	}
	if !a.MatchSymbol('?', '-') || !a.MatchSymbol('?', 'C') {
		tst.Error("Wildcard should match everything")
	}
}

func TestCodon(tst *testing.T) {
	a := Codon()
	if a.Len() != 61 {
		tst.Error("Expected 61 sense codons, got", a.Len())
	}
	if _, ok := a.Index("TAA"); ok {
		tst.Error("Stop codon in the alphabet")
	}
	if a.Gap() != "---" {
		tst.Error("Wrong gap motif:", a.Gap())
	}
	if a.Monomers().Name() != "dna" {
		tst.Error("Codon monomers should be dna")
	}
	if a.WordLen() != 3 {
		tst.Error("Expected word length 3, got", a.WordLen())
	}
	g := a.WithGap()
	if g.Len() != 62 || !g.HasGap() {
		tst.Error("WithGap should add the gap motif")
	}
	if a.HasGap() {
		tst.Error("WithGap should not modify the receiver")
	}
}

func TestWord(tst *testing.T) {
	a := DNA().Word(2)
	if a.Len() != 16 {
		tst.Error("Expected 16 dinucleotides, got", a.Len())
	}
	if a.Motif(0) != "TT" || a.Motif(15) != "GG" {
		tst.Error("Wrong word order:", a.Motifs())
	}
	if a.Monomers().Len() != 4 {
		tst.Error("Word alphabet lost its monomers")
	}
	if a.WordLen() != 2 {
		tst.Error("Expected word length 2, got", a.WordLen())
	}
}

func TestSubset(tst *testing.T) {
	a := Protein(true)
	if a.Len() != 21 {
		tst.Error("Expected 21 amino acids, got", a.Len())
	}
	sub, err := a.Subset([]string{"U"}, true)
	if err != nil {
		tst.Fatal("Subset error:", err)
	}
	if sub.Len() != 20 {
		tst.Error("Expected 20 amino acids, got", sub.Len())
	}
	if _, ok := sub.Index("U"); ok {
		tst.Error("Selenocysteine should be excluded")
	}
}

func TestCheckSize(tst *testing.T) {
	if err := DNA().Word(3).CheckSize(); err != nil {
		tst.Error("64 states should be allowed:", err)
	}
	err := DNA().Word(4).CheckSize()
	var sizeErr *AlphabetSizeError
	if !errors.As(err, &sizeErr) {
		tst.Error("Expected AlphabetSizeError, got", err)
	}
}
