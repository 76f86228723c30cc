// Package checkpoint persists graph leaf-parameter values so an
// external optimizer can resume an interrupted run.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/smodel/calc"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the key name for all parameters.
var MAIN = []byte("main")

// Snapshot stores a model state: leaf parameter values by name plus
// the optimizer's score at that point.
type Snapshot struct {
	Parameters map[string]float64
	Score      float64
	Iter       int
	Final      bool
}

// FromGraph captures the current leaf values of a graph.
func FromGraph(g *calc.Graph, score float64, iter int, final bool) *Snapshot {
	s := &Snapshot{
		Parameters: make(map[string]float64),
		Score:      score,
		Iter:       iter,
		Final:      final,
	}
	for _, leaf := range g.Leaves() {
		s.Parameters[leaf.Name()] = leaf.Get()
	}
	return s
}

// Apply restores saved leaf values into a graph. Unknown parameter
// names are reported and skipped.
func (s *Snapshot) Apply(g *calc.Graph) {
	for name, v := range s.Parameters {
		leaf := g.Leaf(name)
		if leaf == nil {
			log.Warningf("checkpoint parameter %s not in the graph, skipping", name)
			continue
		}
		leaf.Set(v)
	}
}

// IO provides checkpoint operations over a bolt database. A nil
// database disables checkpointing without error.
type IO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewIO creates a new checkpoint IO saving under key at most every
// seconds seconds.
func NewIO(db *bolt.DB, key []byte, seconds float64) *IO {
	return &IO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
}

// Save stores a snapshot in the database.
func (s *IO) Save(data *Snapshot) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	dataB, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, dataB)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns the stored snapshot, nil if there is none.
func (s *IO) Load() (*Snapshot, error) {
	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}

	var data *Snapshot
	err = json.Unmarshal(b, &data)
	if err != nil {
		return nil, err
	}

	if data == nil || len(data.Parameters) == 0 {
		return nil, nil
	}

	if data.Final {
		log.Noticef("Found finished optimization checkpoint (iter=%v, score=%v)", data.Iter, data.Score)
	} else {
		log.Noticef("Found unfinished optimization checkpoint (iter=%v, score=%v)", data.Iter, data.Score)
	}

	return data, nil
}

// Old returns true if the last checkpoint save was too long ago.
func (s *IO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets the last checkpoint time to now.
func (s *IO) SetNow() {
	s.last = time.Now()
}

// SaveData saves a value in the bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads a value from the bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v != nil {
			data = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
