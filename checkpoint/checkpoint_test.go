package checkpoint

import (
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/smodel/calc"
)

func TestRoundTrip(tst *testing.T) {
	fn := filepath.Join(tst.TempDir(), "checkpoint.db")
	db, err := bolt.Open(fn, 0644, nil)
	if err != nil {
		tst.Fatal("Cannot open database:", err)
	}
	defer db.Close()

	g := calc.NewGraph()
	a, b := 2.5, 0.3
	g.NewParam("kappa", &a)
	g.NewParam("length", &b)

	cio := NewIO(db, []byte("test"), 0)
	if err := cio.Save(FromGraph(g, -1234.5, 42, false)); err != nil {
		tst.Fatal("Save error:", err)
	}

	// clobber the values and restore them
	g.Leaf("kappa").Set(1)
	g.Leaf("length").Set(1)

	snap, err := cio.Load()
	if err != nil {
		tst.Fatal("Load error:", err)
	}
	if snap == nil {
		tst.Fatal("Expected a snapshot")
	}
	if snap.Score != -1234.5 || snap.Iter != 42 || snap.Final {
		tst.Error("Wrong snapshot metadata:", snap)
	}
	snap.Apply(g)
	if g.Leaf("kappa").Get() != 2.5 || g.Leaf("length").Get() != 0.3 {
		tst.Error("Values not restored")
	}
}

func TestNilDB(tst *testing.T) {
	g := calc.NewGraph()
	v := 1.0
	g.NewParam("x", &v)

	cio := NewIO(nil, []byte("test"), 0)
	if err := cio.Save(FromGraph(g, 0, 0, true)); err != nil {
		tst.Error("A nil database should be tolerated:", err)
	}
	snap, err := cio.Load()
	if err != nil || snap != nil {
		tst.Error("A nil database should load nothing:", snap, err)
	}
}

func TestOld(tst *testing.T) {
	cio := NewIO(nil, []byte("test"), 3600)
	if !cio.Old() {
		tst.Error("A fresh IO should report an old checkpoint")
	}
	cio.SetNow()
	if cio.Old() {
		tst.Error("Old right after SetNow")
	}
}
