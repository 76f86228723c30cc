package predicate

import (
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/smodel/motif"
)

func transitionFunc(x, y string) bool {
	purine := func(c byte) bool { return c == 'A' || c == 'G' }
	pyrimidine := func(c byte) bool { return c == 'T' || c == 'C' }
	return (purine(x[0]) && purine(y[0])) || (pyrimidine(x[0]) && pyrimidine(y[0]))
}

func TestParsedVsFunc(tst *testing.T) {
	a := motif.DNA()
	parsed, err := Parse("R/R|Y/Y")
	if err != nil {
		tst.Fatal("Parsing error:", err)
	}
	pm := Mask(a, parsed, nil)
	fm := Mask(a, Func(transitionFunc), nil)
	if !Equal(pm, fm) {
		tst.Error("Parsed and function masks differ")
	}
	if Sum(pm) != 4 {
		tst.Error("Expected 4 transition pairs, got", Sum(pm))
	}
}

func TestDirected(tst *testing.T) {
	a := motif.DNA()
	p, err := Parse("T>C")
	if err != nil {
		tst.Fatal("Parsing error:", err)
	}
	m := Mask(a, p, nil)
	if Sum(m) != 1 {
		tst.Error("Expected a single pair, got", Sum(m))
	}
	if m.At(0, 1) != 1 {
		tst.Error("Expected the T->C entry set")
	}
	if IsSymmetrical(m) {
		tst.Error("Directed mask should not be symmetric")
	}
}

func TestMaskRestrict(tst *testing.T) {
	a := motif.DNA()
	restrict := mat64.NewDense(4, 4, nil)
	restrict.Set(0, 1, 1)
	restrict.Set(1, 0, 1)
	m := Mask(a, Func(func(x, y string) bool { return true }), restrict)
	if Sum(m) != 2 {
		tst.Error("Mask should honor the restriction, got", Sum(m))
	}
	for i := 0; i < 4; i++ {
		if m.At(i, i) != 0 {
			tst.Error("Diagonal must stay zero")
		}
	}
}

func TestRedundancy(tst *testing.T) {
	a := motif.DNA()
	ts, _ := Parse("R/R|Y/Y")
	tv, _ := Parse("R/Y")
	inst := Mask(a, Func(func(x, y string) bool { return x != y }), nil)
	tsm := Mask(a, ts, inst)
	tvm := Mask(a, tv, inst)

	if r := Redundancy([]*mat64.Dense{tsm, tvm}); r != 0 {
		tst.Error("Independent masks flagged redundant:", r)
	}
	// the same mask twice is rank deficient
	if r := Redundancy([]*mat64.Dense{tsm, tsm}); r != 1 {
		tst.Error("Duplicate masks should have redundancy 1, got", r)
	}
	// transitions + transversions sum to the instantaneous mask
	if r := Redundancy([]*mat64.Dense{tsm, tvm, inst}); r != 1 {
		tst.Error("Expected collapse into the overall rate, got", r)
	}
}

func TestIndices(tst *testing.T) {
	a := motif.DNA()
	p, _ := Parse("T/C")
	m := Mask(a, p, nil)
	idx := Indices(m)
	if len(idx) != 2 {
		tst.Fatal("Expected 2 indices, got", idx)
	}
	// T=0, C=1 in a 4x4 row-major matrix
	if idx[0] != 1 || idx[1] != 4 {
		tst.Error("Wrong flat indices:", idx)
	}
}
