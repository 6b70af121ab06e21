// Package sparql implements the SPARQL 1.1 query evaluator: a recursive
// descent parser that builds an algebra tree, a planner that picks join
// order and index orderings, and an executor that streams solutions.
//
// The evaluator runs against the QueryableDataset interface rather than
// a concrete *store.QuadStore, so it can be exercised against an
// in-memory dataset in tests or against an external engine -- only
// storedataset.go ties it to this module's own store package.
package sparql

import "github.com/trigonrdf/trigon/rdf"

// Var is a SPARQL variable name. Pattern positions and expression trees
// hold either a Var (unbound) or an rdf.Term (bound) as an any value.
type Var string

func (v Var) String() string { return "?" + string(v) }

// QuadPattern is a quad pattern for QueryableDataset.Quads: each field is
// either an rdf.Term (bound) or a Var (unbound). A nil Graph means
// "default graph only" and a term Graph selects that graph. The executor
// never passes a Var Graph (GRAPH ?g enumerates the named graphs itself),
// and StoreDataset treats one the same as nil.
type QuadPattern struct {
	Subject, Predicate, Object, Graph any
}

// QuadIterator streams quads matching a QuadPattern. Callers must Close it.
type QuadIterator interface {
	Next() bool
	Quad() (rdf.Quad, error)
	Err() error
	Close() error
}

// QueryableDataset is the extension point described by the design's
// external-interfaces section: an alternative backing store exposing
// pattern-matching quads and the set of named graphs. The SPARQL
// evaluator is written entirely against this interface.
type QueryableDataset interface {
	Quads(pattern QuadPattern) (QuadIterator, error)
	NamedGraphs() ([]rdf.Term, error)
}

// ServiceHandler is the SPARQL extension point: given a service IRI and
// the sub-algebra inside a SERVICE block, it returns a solution
// iterator. Handlers are external collaborators -- the evaluator never
// performs network I/O itself.
type ServiceHandler interface {
	Service(serviceIRI rdf.Term, pattern Algebra, incoming Solution) (SolutionIterator, error)
}

// ErrServiceUnavailable is returned by the default evaluator when a
// query contains SERVICE and no ServiceHandler was configured.
type ErrServiceUnavailable struct {
	IRI rdf.Term
}

func (e *ErrServiceUnavailable) Error() string {
	return "sparql: no service handler configured for " + e.IRI.String()
}
