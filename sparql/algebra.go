package sparql

import "github.com/trigonrdf/trigon/rdf"

// Algebra is one node of a SPARQL algebra tree: BGP, property path, join,
// left-join, union, minus, filter, extend, values, group, order-by,
// project, distinct/reduced, slice, or service. The set is closed and
// every planner/executor routine exhaustively switches over it.
type Algebra interface {
	algebraNode()
}

// TriplePattern is one triple of a BGP: each position is either a bound
// rdf.Term or an unbound Var.
type TriplePattern struct {
	Subject, Predicate, Object any
}

// BGP is a Basic Graph Pattern: a conjunction of triple patterns,
// evaluated inside the dataset's active graph (set by an enclosing Graph
// node, or the default graph if none).
type BGP struct {
	Patterns []TriplePattern
}

func (BGP) algebraNode() {}

// PathTriple is a property-path triple: (Subject, Path, Object).
type PathTriple struct {
	Subject any
	Path    PathExpr
	Object  any
}

func (PathTriple) algebraNode() {}

// PathExpr is a property path expression (design §4.4).
type PathExpr interface {
	pathNode()
}

// PredicatePath matches a single predicate IRI.
type PredicatePath struct{ Predicate rdf.Term }

func (PredicatePath) pathNode() {}

// NegatedPropertySet matches any predicate not in Predicates (each
// optionally traversed in reverse, when Inverse[i] is true).
type NegatedPropertySet struct {
	Predicates []rdf.Term
	Inverse    []bool
}

func (NegatedPropertySet) pathNode() {}

// InversePath reverses subject/object of the wrapped path.
type InversePath struct{ Path PathExpr }

func (InversePath) pathNode() {}

// SequencePath is path1/path2.
type SequencePath struct{ Left, Right PathExpr }

func (SequencePath) pathNode() {}

// AlternativePath is path1|path2.
type AlternativePath struct{ Left, Right PathExpr }

func (AlternativePath) pathNode() {}

// ZeroOrMorePath is path* : breadth-first transitive closure including
// the starting node.
type ZeroOrMorePath struct{ Path PathExpr }

func (ZeroOrMorePath) pathNode() {}

// OneOrMorePath is path+ : transitive closure excluding the starting
// node unless reachable via a cycle.
type OneOrMorePath struct{ Path PathExpr }

func (OneOrMorePath) pathNode() {}

// ZeroOrOnePath is path? : the node itself, or one hop.
type ZeroOrOnePath struct{ Path PathExpr }

func (ZeroOrOnePath) pathNode() {}

// Join is an inner join of two algebra subtrees over shared variables.
type Join struct{ Left, Right Algebra }

func (Join) algebraNode() {}

// LeftJoin is OPTIONAL: every Left solution is preserved, extended with
// Right's bindings when Right has a match satisfying Expr (nil Expr
// means "always true").
type LeftJoin struct {
	Left, Right Algebra
	Expr        Expr
}

func (LeftJoin) algebraNode() {}

// Union evaluates Left and Right independently and concatenates.
type Union struct{ Left, Right Algebra }

func (Union) algebraNode() {}

// Minus removes Left solutions that are "compatible and disjoint enough"
// with some Right solution, per SPARQL MINUS semantics.
type Minus struct{ Left, Right Algebra }

func (Minus) algebraNode() {}

// Filter keeps only Input solutions for which Expr's effective boolean
// value is true.
type Filter struct {
	Input Algebra
	Expr  Expr
}

func (Filter) algebraNode() {}

// Extend is BIND: adds a binding for Var computed from Expr. The parser
// does not check whether Var is already in scope; when a solution
// already binds Var and Expr evaluates, the new value replaces it.
type Extend struct {
	Input Algebra
	Var   Var
	Expr  Expr
}

func (Extend) algebraNode() {}

// Values is an inline VALUES block: Vars names the columns, Rows holds
// one []any per row (nil entries are UNDEF).
type Values struct {
	Vars []Var
	Rows [][]any
}

func (Values) algebraNode() {}

// Graph restricts Input to one named graph (Name bound) or iterates
// every named graph (Name a Var), binding Name to the graph IRI in each
// case.
type Graph struct {
	Name  any
	Input Algebra
}

func (Graph) algebraNode() {}

// Group partitions Input's solution stream by the values of By and
// computes one row of Aggregates per partition. An empty By with a
// non-empty Aggregates list treats the whole stream as one group.
type Group struct {
	Input      Algebra
	By         []GroupKey
	Aggregates []AggregateBinding
}

func (Group) algebraNode() {}

// GroupKey is one GROUP BY expression, optionally bound to a variable
// via "GROUP BY (expr AS ?v)".
type GroupKey struct {
	Expr Expr
	As   Var // empty if not aliased
}

// AggregateBinding names the output variable an AggregateExpr is bound
// to, e.g. "(COUNT(?x) AS ?n)".
type AggregateBinding struct {
	Var  Var
	Expr AggregateExpr
}

// AggOp is an aggregate function.
type AggOp int

const (
	AggCount AggOp = iota
	AggSum
	AggMin
	AggMax
	AggAvg
	AggSample
	AggGroupConcat
)

// AggregateExpr is one aggregate call. Expr is nil for COUNT(*).
type AggregateExpr struct {
	Op        AggOp
	Distinct  bool
	Expr      Expr
	Separator string // GROUP_CONCAT only; defaults to " "
}

// OrderCondition is one ORDER BY key.
type OrderCondition struct {
	Expr       Expr
	Descending bool
}

// OrderBy sorts Input by Conditions, each applied in turn.
type OrderBy struct {
	Input      Algebra
	Conditions []OrderCondition
}

func (OrderBy) algebraNode() {}

// Project keeps only the named variables in each solution.
type Project struct {
	Input Algebra
	Vars  []Var
}

func (Project) algebraNode() {}

// Distinct suppresses duplicate solutions (requires buffering seen rows).
type Distinct struct{ Input Algebra }

func (Distinct) algebraNode() {}

// Reduced permits (but does not require) duplicate suppression; this
// executor treats it identically to no-op, matching the "MAY eliminate"
// wording of the spec.
type Reduced struct{ Input Algebra }

func (Reduced) algebraNode() {}

// Slice applies OFFSET/LIMIT. Limit of -1 means unbounded.
type Slice struct {
	Input  Algebra
	Offset int
	Limit  int
}

func (Slice) algebraNode() {}

// Service delegates Input to an external handler identified by Name
// (bound IRI or Var). Silent suppresses a handler error, passing the
// incoming solution through unchanged for this block instead of failing
// the query.
type Service struct {
	Name   any
	Input  Algebra
	Silent bool
}

func (Service) algebraNode() {}

// emptyTable is the algebra for "WHERE {}" -- exactly one empty
// solution, the identity element for Join.
type emptyTable struct{}

func (emptyTable) algebraNode() {}

// EmptyTable is the single-empty-solution identity algebra node.
var EmptyTable Algebra = emptyTable{}
