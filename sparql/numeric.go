package sparql

import (
	"fmt"
	"strconv"

	"github.com/trigonrdf/trigon/rdf"
)

// numKind ranks the XPath/SPARQL numeric type-promotion ladder: integer
// is a subtype of decimal, which is a subtype of float, which is a
// subtype of double (design §4.4). A binary numeric operation's result
// type is the wider of its two operands' kinds.
type numKind int

const (
	numInteger numKind = iota
	numDecimal
	numFloat
	numDouble
)

// numeric is a decoded numeric literal: exact integer/decimal values are
// kept as a string-free float64 plus the originating kind, which is
// sufficient for the arithmetic and comparisons this evaluator performs.
type numeric struct {
	kind numKind
	val  float64
}

func numKindOf(datatype rdf.NamedNode) (numKind, bool) {
	switch datatype.IRI {
	case rdf.XSDInteger.IRI:
		return numInteger, true
	case rdf.XSDDecimal.IRI:
		return numDecimal, true
	case rdf.XSDFloat.IRI:
		return numFloat, true
	case rdf.XSDDouble.IRI:
		return numDouble, true
	}
	return 0, false
}

// asNumeric extracts a numeric value from a literal term, or reports ok=false
// if t is not a numeric literal.
func asNumeric(t rdf.Term) (numeric, bool) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return numeric{}, false
	}
	kind, ok := numKindOf(lit.Datatype)
	if !ok {
		return numeric{}, false
	}
	f, err := strconv.ParseFloat(lit.Value, 64)
	if err != nil {
		return numeric{}, false
	}
	return numeric{kind: kind, val: f}, true
}

func promote(a, b numKind) numKind {
	if a > b {
		return a
	}
	return b
}

// literal renders n back into a canonical-lexical-form typed literal.
func (n numeric) literal() rdf.Literal {
	var dt rdf.NamedNode
	var lex string
	switch n.kind {
	case numInteger:
		dt = rdf.XSDInteger
		lex = strconv.FormatInt(int64(n.val), 10)
	case numDecimal:
		dt = rdf.XSDDecimal
		lex = formatDecimal(n.val)
	case numFloat:
		dt = rdf.XSDFloat
		lex = formatDoubleLike(n.val, 32)
	default:
		dt = rdf.XSDDouble
		lex = formatDoubleLike(n.val, 64)
	}
	return rdf.NewTypedLiteral(lex, dt)
}

// formatDecimal keeps at least one fractional digit, matching
// xsd:decimal's canonical form (never exponential notation).
func formatDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}

func formatDoubleLike(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func arith(op BinOp, l, r numeric) (rdf.Term, error) {
	kind := promote(l.kind, r.kind)
	switch op {
	case OpAdd:
		return numeric{kind: kind, val: l.val + r.val}.literal(), nil
	case OpSub:
		return numeric{kind: kind, val: l.val - r.val}.literal(), nil
	case OpMul:
		return numeric{kind: kind, val: l.val * r.val}.literal(), nil
	case OpDiv:
		if r.val == 0 {
			return nil, fmt.Errorf("sparql: division by zero")
		}
		// SPARQL division always promotes integer/integer to decimal.
		resultKind := kind
		if resultKind == numInteger {
			resultKind = numDecimal
		}
		return numeric{kind: resultKind, val: l.val / r.val}.literal(), nil
	}
	return nil, fmt.Errorf("sparql: unsupported numeric operator")
}

func compareNumeric(l, r numeric) int {
	switch {
	case l.val < r.val:
		return -1
	case l.val > r.val:
		return 1
	default:
		return 0
	}
}
