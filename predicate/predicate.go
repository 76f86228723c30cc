// Package predicate implements boolean tests over ordered motif
// pairs and their rendering into 0/1 masks for rate-matrix
// parameterization.
package predicate

import (
	"fmt"
	"strings"

	"bitbucket.org/Davydov/smodel/motif"
)

// Predicate is a pure boolean function of an ordered motif pair.
// Raw functions, parsed expressions and user-wrapped functions all
// implement this one interface; the mask stage never sees anything
// else.
type Predicate interface {
	Matches(a *motif.Alphabet, x, y string) bool
	String() string
}

// Func adapts a raw function to a Predicate.
type Func func(x, y string) bool

// Matches calls the wrapped function; the alphabet is ignored.
func (f Func) Matches(a *motif.Alphabet, x, y string) bool { return f(x, y) }

func (f Func) String() string { return "user function" }

// Named attaches a label to a predicate.
type Named struct {
	Label string
	Pred  Predicate
}

// Matches delegates to the wrapped predicate.
func (n Named) Matches(a *motif.Alphabet, x, y string) bool {
	return n.Pred.Matches(a, x, y)
}

func (n Named) String() string { return n.Label }

// orPred is the union of two predicates.
type orPred struct {
	a, b Predicate
}

func (o orPred) Matches(a *motif.Alphabet, x, y string) bool {
	return o.a.Matches(a, x, y) || o.b.Matches(a, x, y)
}

func (o orPred) String() string {
	return o.a.String() + "|" + o.b.String()
}

// Or returns the union of predicates.
func Or(a, b Predicate) Predicate { return orPred{a, b} }

// MotifChange is a parsed pairwise-change expression. It is true when
// every differing position of the pair changes from a character
// matching From to one matching To (both directions unless Directed).
// From and To may be concrete monomers, degenerate codes, the gap
// character '-' or the wildcard '?'.
type MotifChange struct {
	From, To byte
	Directed bool
}

// Matches evaluates the change expression over the differing
// positions of the pair.
func (c MotifChange) Matches(a *motif.Alphabet, x, y string) bool {
	if x == y {
		return false
	}
	mono := a.Monomers()
	seen := false
	for i := 0; i < len(x) && i < len(y); i++ {
		if x[i] == y[i] {
			continue
		}
		seen = true
		ok := mono.MatchSymbol(c.From, x[i]) && mono.MatchSymbol(c.To, y[i])
		if !ok && !c.Directed {
			ok = mono.MatchSymbol(c.From, y[i]) && mono.MatchSymbol(c.To, x[i])
		}
		if !ok {
			return false
		}
	}
	return seen
}

func (c MotifChange) String() string {
	sep := "/"
	if c.Directed {
		sep = ">"
	}
	return string(c.From) + sep + string(c.To)
}

// Parse parses a change expression: "R/Y" (undirected), "T>C"
// (directed), unions joined with '|' ("R/R|Y/Y"), gap '-' and
// wildcard '?' ("-/?").
func Parse(s string) (Predicate, error) {
	var result Predicate
	for _, term := range strings.Split(s, "|") {
		sep := "/"
		directed := false
		if strings.Contains(term, ">") {
			sep = ">"
			directed = true
		}
		parts := strings.Split(term, sep)
		if len(parts) != 2 || len(parts[0]) != 1 || len(parts[1]) != 1 {
			return nil, fmt.Errorf("cannot parse predicate expression %q", term)
		}
		c := MotifChange{From: parts[0][0], To: parts[1][0], Directed: directed}
		if result == nil {
			result = c
		} else {
			result = Or(result, c)
		}
	}
	if result == nil {
		return nil, fmt.Errorf("empty predicate expression %q", s)
	}
	return result, nil
}
