package sparql

import "github.com/trigonrdf/trigon/rdf"

// Solution is one row of variable bindings. A variable absent from the
// map is unbound, distinct from being bound to rdf.DefaultGraph{}.
type Solution map[Var]rdf.Term

// Clone returns a shallow copy, safe to extend without mutating s.
func (s Solution) Clone() Solution {
	out := make(Solution, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Compatible reports whether s and o agree on every variable they both
// bind -- the join condition for Join/LeftJoin/Minus.
func (s Solution) Compatible(o Solution) bool {
	for k, v := range s {
		if ov, ok := o[k]; ok && !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Merge returns the union of s and o, assuming Compatible(s, o).
func (s Solution) Merge(o Solution) Solution {
	out := s.Clone()
	for k, v := range o {
		out[k] = v
	}
	return out
}

// SolutionIterator streams solutions. Cancellation is cooperative: the
// executor checks its context during evaluation and, via checkCancel,
// polls ctx.Done() every cancelCheckInterval (512) rows rather than
// blocking indefinitely.
type SolutionIterator interface {
	Next() bool
	Solution() Solution
	Err() error
	Close() error
}

// sliceIterator adapts a pre-materialized []Solution to SolutionIterator;
// Executor.Execute wraps every result in one.
type sliceIterator struct {
	rows []Solution
	pos  int
}

func newSliceIterator(rows []Solution) *sliceIterator { return &sliceIterator{rows: rows, pos: -1} }

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.rows)
}
func (it *sliceIterator) Solution() Solution { return it.rows[it.pos] }
func (it *sliceIterator) Err() error         { return nil }
func (it *sliceIterator) Close() error       { return nil }

// errIterator is a SolutionIterator that immediately reports err.
type errIterator struct{ err error }

func (it errIterator) Next() bool         { return false }
func (it errIterator) Solution() Solution { return nil }
func (it errIterator) Err() error         { return it.err }
func (it errIterator) Close() error       { return nil }
