package model

import (
	"fmt"
	"strings"
)

// TriviallyFalseError is returned when a predicate selects no motif
// pairs.
type TriviallyFalseError struct {
	Name string
}

func (e *TriviallyFalseError) Error() string {
	return fmt.Sprintf("predicate %s is always false", e.Name)
}

// TriviallyTrueError is returned in scaling mode when a predicate
// selects exactly the full instantaneous set; it duplicates the
// implicit overall-rate parameter.
type TriviallyTrueError struct {
	Name string
}

func (e *TriviallyTrueError) Error() string {
	return fmt.Sprintf("predicate %s is always true", e.Name)
}

// RedundancyError is returned when parameter masks are linearly
// dependent. With Collapse the dependence involves the implicit
// instantaneous mask, i.e. some combination of predicates is
// equivalent to the overall rate parameter.
type RedundancyError struct {
	Names    []string
	Collapse bool
}

func (e *RedundancyError) Error() string {
	if e.Collapse {
		return fmt.Sprintf("some combination of predicates (%s) is equivalent to the overall rate parameter",
			strings.Join(e.Names, ", "))
	}
	return fmt.Sprintf("redundancy in predicates (%s)", strings.Join(e.Names, ", "))
}

// BinConfigError is returned for inconsistent rate-heterogeneity or
// motif-probability configuration.
type BinConfigError struct {
	Msg string
}

func (e *BinConfigError) Error() string { return e.Msg }

// EmpiricalMatrixError is returned when a user-supplied rate matrix
// has the wrong shape or a non-zero diagonal.
type EmpiricalMatrixError struct {
	Msg string
}

func (e *EmpiricalMatrixError) Error() string { return e.Msg }
