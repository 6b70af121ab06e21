package sparql

import "github.com/trigonrdf/trigon/rdf"

// Expr is a SPARQL expression tree node: a term (literal/IRI/variable),
// a unary or binary operator application, or a function call. The
// executor evaluates an Expr per-solution into a typed value; see
// evalExpr in functions.go for the error/EBV rules.
type Expr interface {
	exprNode()
}

// TermExpr is a constant rdf.Term or a bound Var reference.
type TermExpr struct {
	// Term is an rdf.Term for a literal/IRI constant, or a Var for a
	// variable reference.
	Term any
}

func (TermExpr) exprNode() {}

// BinOp is a binary expression operator.
type BinOp int

const (
	OpOr BinOp = iota
	OpAnd
	OpEqual
	OpNotEqual
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIn
	OpNotIn
)

// BinaryExpr is "Left Op Right".
type BinaryExpr struct {
	Op          BinOp
	Left, Right Expr
	// List holds the right-hand operand list for IN / NOT IN; Right is
	// unused in that case.
	List []Expr
}

func (BinaryExpr) exprNode() {}

// UnOp is a unary expression operator.
type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
	OpPos
)

// UnaryExpr is "Op Operand".
type UnaryExpr struct {
	Op      UnOp
	Operand Expr
}

func (UnaryExpr) exprNode() {}

// FuncCall is a built-in function or CAST application, e.g. BOUND(?x),
// STRLEN(?s), xsd:integer(?x).
type FuncCall struct {
	Name string
	Args []Expr
}

func (FuncCall) exprNode() {}

// BoundExpr is the BOUND(?var) form, special-cased because it must not
// raise an error for an unbound variable the way other functions do.
type BoundExpr struct{ Var Var }

func (BoundExpr) exprNode() {}

// AggregateCallExpr wraps an aggregate function call (COUNT, SUM, ...)
// encountered while parsing a SELECT list, HAVING clause, or ORDER BY
// key. It is transient: the query compiler hoists every AggregateCallExpr
// out of the expression tree into a Group node's Aggregates list before
// handing the rest of the expression to the executor, replacing it with
// a TermExpr referencing the aggregate's generated output variable.
type AggregateCallExpr struct {
	Agg AggregateExpr
}

func (AggregateCallExpr) exprNode() {}

// ExistsExpr is EXISTS/NOT EXISTS { pattern }.
type ExistsExpr struct {
	Pattern Algebra
	Negate  bool
}

func (ExistsExpr) exprNode() {}

// errorTerm is the internal sentinel for SPARQL's "error value": the
// result of division by zero, an invalid coercion, or a reference to an
// unbound variable. It satisfies rdf.Term only so evalExpr can return a
// uniform (rdf.Term, error) shape; EBV and comparison always check for
// it via isErrorTerm before treating a value as ordinary.
type errorTerm struct{ reason string }

func (e errorTerm) Type() rdf.TermType  { return 0 }
func (e errorTerm) String() string      { return "error(" + e.reason + ")" }
func (e errorTerm) Equal(rdf.Term) bool { return false }

func newError(reason string) errorTerm { return errorTerm{reason: reason} }

func isErrorTerm(t rdf.Term) bool {
	_, ok := t.(errorTerm)
	return ok
}
