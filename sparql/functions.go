package sparql

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/trigonrdf/trigon/rdf"
)

// newUUID generates a random version-4 UUID for the UUID()/STRUUID()/
// BNODE() built-ins. It is not a cryptographic primitive; it borrows
// crypto/rand purely for uniqueness, as the teacher's own ID-minting
// code does.
func newUUID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// encodeForURI implements SPARQL's ENCODE_FOR_URI: percent-encode every
// byte outside RFC 3986's unreserved set. url.QueryEscape encodes a
// space as '+' rather than '%20'; since QueryEscape always escapes a
// literal '+' to "%2B", any '+' left afterward came from a space.
func encodeForURI(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func hashHex(args []rdf.Term, h hash.Hash) rdf.Term {
	s, _ := extractString(args[0])
	h.Write([]byte(s))
	return rdf.NewLiteral(hex.EncodeToString(h.Sum(nil)))
}

func evalReplace(args []rdf.Term) (rdf.Term, error) {
	s, ok := extractString(args[0])
	if !ok {
		return newError("REPLACE of non-string"), nil
	}
	pattern, _ := extractString(args[1])
	replacement, _ := extractString(args[2])
	flags := ""
	if len(args) > 3 {
		flags, _ = extractString(args[3])
	}
	goPattern := pattern
	if strings.Contains(flags, "i") {
		goPattern = "(?i)" + goPattern
	}
	if strings.Contains(flags, "s") {
		goPattern = "(?s)" + goPattern
	}
	re, err := regexp.Compile(goPattern)
	if err != nil {
		return newError("invalid regex: " + err.Error()), nil
	}
	// SPARQL's REPLACE uses XPath capture-group syntax ($1); Go's
	// regexp uses $1 too, so no translation is needed for the common
	// case of numbered backreferences.
	return rdf.NewLiteral(re.ReplaceAllString(s, replacement)), nil
}

// pseudoRandom returns a value in [0, 1) for RAND(), seeded from
// crypto/rand since the evaluator has no access to time.Now or
// math/rand's global seed state guarantees.
func pseudoRandom() float64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// evalEnv carries the per-solution context an Expr is evaluated against:
// the current bindings, plus a callback letting EXISTS/NOT EXISTS run a
// sub-algebra against the same dataset and snapshot the executor holds.
type evalEnv struct {
	sol    Solution
	exists func(pattern Algebra, sol Solution) (bool, error)
}

// evalExpr evaluates expr against env, returning the error value (never a
// Go error) for any expression-local failure: division by zero, an
// invalid coercion, or a reference to an unbound variable. Only a
// genuine evaluation fault that must abort the query (e.g. EXISTS
// failing to run its sub-pattern) is returned as a Go error.
func evalExpr(expr Expr, env evalEnv) (rdf.Term, error) {
	switch e := expr.(type) {
	case TermExpr:
		if v, ok := e.Term.(Var); ok {
			t, bound := env.sol[v]
			if !bound {
				return newError("unbound variable ?" + string(v)), nil
			}
			return t, nil
		}
		return e.Term.(rdf.Term), nil

	case BoundExpr:
		_, bound := env.sol[e.Var]
		return rdf.NewTypedLiteral(boolLexical(bound), rdf.XSDBoolean), nil

	case UnaryExpr:
		return evalUnary(e, env)

	case BinaryExpr:
		return evalBinary(e, env)

	case FuncCall:
		return evalFuncCall(e, env)

	case ExistsExpr:
		ok, err := env.exists(e.Pattern, env.sol)
		if err != nil {
			return nil, err
		}
		if e.Negate {
			ok = !ok
		}
		return rdf.NewTypedLiteral(boolLexical(ok), rdf.XSDBoolean), nil
	}
	return nil, fmt.Errorf("sparql: unknown expression node %T", expr)
}

func boolLexical(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// EBV computes the SPARQL Effective Boolean Value. Per design §4.4: a
// boolean literal yields its value; a numeric literal yields
// value-is-nonzero; a plain/xsd:string string literal yields
// length-is-nonzero; every other term (IRI, blank node, quoted triple,
// language-tagged literal, non-numeric typed literal) yields the error
// value, which filters treat as false.
func EBV(t rdf.Term, err error) (bool, bool) {
	if err != nil || t == nil || isErrorTerm(t) {
		return false, false
	}
	lit, ok := t.(rdf.Literal)
	if !ok {
		return false, false
	}
	switch lit.Datatype.IRI {
	case rdf.XSDBoolean.IRI:
		return lit.Value == "true" || lit.Value == "1", true
	}
	if n, ok := asNumeric(lit); ok {
		return n.val != 0, true
	}
	if lit.Datatype.IRI == rdf.XSDString.IRI && lit.Language == "" {
		return lit.Value != "", true
	}
	return false, false
}

func evalUnary(e UnaryExpr, env evalEnv) (rdf.Term, error) {
	v, err := evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case OpNot:
		b, ok := EBV(v, nil)
		if !ok {
			return newError("NOT of non-boolean"), nil
		}
		return rdf.NewTypedLiteral(boolLexical(!b), rdf.XSDBoolean), nil
	case OpNeg, OpPos:
		n, ok := asNumeric(v)
		if !ok {
			return newError("unary +/- on non-numeric"), nil
		}
		if e.Op == OpNeg {
			n.val = -n.val
		}
		return n.literal(), nil
	}
	return nil, fmt.Errorf("sparql: unknown unary operator")
}

func evalBinary(e BinaryExpr, env evalEnv) (rdf.Term, error) {
	if e.Op == OpAnd || e.Op == OpOr {
		return evalLogical(e, env)
	}

	left, err := evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}

	if e.Op == OpIn || e.Op == OpNotIn {
		return evalIn(e, left, env)
	}

	right, err := evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		ln, lok := asNumeric(left)
		rn, rok := asNumeric(right)
		if !lok || !rok {
			return newError("arithmetic on non-numeric operand"), nil
		}
		v, err := arith(e.Op, ln, rn)
		if err != nil {
			return newError(err.Error()), nil
		}
		return v, nil
	case OpEqual:
		return boolResult(termsEqual(left, right)), nil
	case OpNotEqual:
		return boolResult(!termsEqual(left, right)), nil
	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
		return evalOrderingCompare(e.Op, left, right)
	}
	return nil, fmt.Errorf("sparql: unknown binary operator")
}

func boolResult(b bool) rdf.Term { return rdf.NewTypedLiteral(boolLexical(b), rdf.XSDBoolean) }

func evalLogical(e BinaryExpr, env evalEnv) (rdf.Term, error) {
	lv, lerr := evalExpr(e.Left, env)
	lb, lok := EBV(lv, lerr)

	// SPARQL's logical connectives short-circuit on a determining value
	// even when the other operand errors, per the standard's "effective
	// boolean value" truth tables for AND/OR with an error operand.
	if e.Op == OpAnd && lok && !lb {
		return boolResult(false), nil
	}
	if e.Op == OpOr && lok && lb {
		return boolResult(true), nil
	}

	rv, rerr := evalExpr(e.Right, env)
	rb, rok := EBV(rv, rerr)

	if e.Op == OpAnd {
		if lok && rok {
			return boolResult(lb && rb), nil
		}
		if (lok && !lb) || (rok && !rb) {
			return boolResult(false), nil
		}
		return newError("AND over error operand"), nil
	}
	if lok && rok {
		return boolResult(lb || rb), nil
	}
	if (lok && lb) || (rok && rb) {
		return boolResult(true), nil
	}
	return newError("OR over error operand"), nil
}

func evalIn(e BinaryExpr, left rdf.Term, env evalEnv) (rdf.Term, error) {
	found := false
	for _, item := range e.List {
		v, err := evalExpr(item, env)
		if err == nil && termsEqual(left, v) {
			found = true
			break
		}
	}
	if e.Op == OpNotIn {
		found = !found
	}
	return boolResult(found), nil
}

// termsEqual is SPARQL's "=" on RDF terms: numeric literals compare by
// value across datatypes; other literals and IRIs compare by
// rdf.Term.Equal (datatype and language included).
func termsEqual(a, b rdf.Term) bool {
	if isErrorTerm(a) || isErrorTerm(b) {
		return false
	}
	if an, ok := asNumeric(a); ok {
		if bn, ok := asNumeric(b); ok {
			return compareNumeric(an, bn) == 0
		}
	}
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

func evalOrderingCompare(op BinOp, left, right rdf.Term) (rdf.Term, error) {
	cmp, ok := orderingCompare(left, right)
	if !ok {
		return newError("incomparable operands"), nil
	}
	switch op {
	case OpLess:
		return boolResult(cmp < 0), nil
	case OpLessEq:
		return boolResult(cmp <= 0), nil
	case OpGreater:
		return boolResult(cmp > 0), nil
	default:
		return boolResult(cmp >= 0), nil
	}
}

// orderingCompare orders two terms for "<"/">"/ORDER BY: numeric by
// value, booleans false<true, any other two literals by lexical form; a
// numeric or boolean against any other kind, and any non-literal, is
// incomparable.
func orderingCompare(a, b rdf.Term) (int, bool) {
	if an, ok := asNumeric(a); ok {
		if bn, ok := asNumeric(b); ok {
			return compareNumeric(an, bn), true
		}
		return 0, false
	}
	if _, ok := asNumeric(b); ok {
		return 0, false
	}
	al, aok := a.(rdf.Literal)
	bl, bok := b.(rdf.Literal)
	if aok && bok {
		aBool, bBool := al.Datatype.IRI == rdf.XSDBoolean.IRI, bl.Datatype.IRI == rdf.XSDBoolean.IRI
		if aBool != bBool {
			return 0, false
		}
		if aBool {
			av, bv := al.Value == "true", bl.Value == "true"
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
		return strings.Compare(al.Value, bl.Value), true
	}
	return 0, false
}

func extractString(t rdf.Term) (string, bool) {
	switch v := t.(type) {
	case rdf.Literal:
		return v.Value, true
	case rdf.NamedNode:
		return v.IRI, true
	}
	return "", false
}

func evalFuncCall(e FuncCall, env evalEnv) (rdf.Term, error) {
	args := make([]rdf.Term, len(e.Args))
	for i, a := range e.Args {
		v, err := evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	for _, a := range args {
		if isErrorTerm(a) {
			return a, nil
		}
	}

	switch strings.ToUpper(e.Name) {
	case "ISIRI", "ISURI":
		_, ok := args[0].(rdf.NamedNode)
		return boolResult(ok), nil
	case "ISBLANK":
		_, ok := args[0].(rdf.BlankNode)
		return boolResult(ok), nil
	case "ISLITERAL":
		_, ok := args[0].(rdf.Literal)
		return boolResult(ok), nil
	case "ISNUMERIC":
		_, ok := asNumeric(args[0])
		return boolResult(ok), nil
	case "STR":
		s, _ := extractString(args[0])
		return rdf.NewLiteral(s), nil
	case "LANG":
		lit, ok := args[0].(rdf.Literal)
		if !ok {
			return newError("LANG of non-literal"), nil
		}
		return rdf.NewLiteral(lit.Language), nil
	case "DATATYPE":
		lit, ok := args[0].(rdf.Literal)
		if !ok {
			return newError("DATATYPE of non-literal"), nil
		}
		return lit.Datatype, nil
	case "STRLEN":
		s, ok := extractString(args[0])
		if !ok {
			return newError("STRLEN of non-string"), nil
		}
		return numeric{kind: numInteger, val: float64(len([]rune(s)))}.literal(), nil
	case "UCASE":
		s, _ := extractString(args[0])
		return rdf.NewLiteral(strings.ToUpper(s)), nil
	case "LCASE":
		s, _ := extractString(args[0])
		return rdf.NewLiteral(strings.ToLower(s)), nil
	case "CONCAT":
		var b strings.Builder
		for _, a := range args {
			s, ok := extractString(a)
			if !ok {
				return newError("CONCAT of non-string"), nil
			}
			b.WriteString(s)
		}
		return rdf.NewLiteral(b.String()), nil
	case "SUBSTR":
		return evalSubstr(args)
	case "CONTAINS":
		a, _ := extractString(args[0])
		b, _ := extractString(args[1])
		return boolResult(strings.Contains(a, b)), nil
	case "STRSTARTS":
		a, _ := extractString(args[0])
		b, _ := extractString(args[1])
		return boolResult(strings.HasPrefix(a, b)), nil
	case "STRENDS":
		a, _ := extractString(args[0])
		b, _ := extractString(args[1])
		return boolResult(strings.HasSuffix(a, b)), nil
	case "REGEX":
		return evalRegex(args)
	case "LANGMATCHES":
		tag, _ := extractString(args[0])
		rng, _ := extractString(args[1])
		return boolResult(langMatches(tag, rng)), nil
	case "SAMETERM":
		return boolResult(args[0] != nil && args[1] != nil && args[0].Equal(args[1])), nil
	case "ABS", "CEIL", "FLOOR", "ROUND":
		return evalMathFunc(e.Name, args)
	case "IF":
		b, ok := EBV(args[0], nil)
		if !ok {
			return newError("IF condition not boolean"), nil
		}
		if b {
			return args[1], nil
		}
		return args[2], nil
	case "COALESCE":
		for _, a := range args {
			if a != nil && !isErrorTerm(a) {
				return a, nil
			}
		}
		return newError("COALESCE of all-error arguments"), nil
	case "UUID":
		return rdf.NewNamedNode("urn:uuid:" + newUUID()), nil
	case "STRUUID":
		return rdf.NewLiteral(newUUID()), nil
	case "BNODE":
		if len(args) == 0 {
			return rdf.NewBlankNode(newUUID()), nil
		}
		s, _ := extractString(args[0])
		return rdf.NewBlankNode(s), nil
	case "ENCODE_FOR_URI":
		s, _ := extractString(args[0])
		return rdf.NewLiteral(encodeForURI(s)), nil
	case "STRLANG":
		s, _ := extractString(args[0])
		lang, _ := extractString(args[1])
		return rdf.NewLangLiteral(s, lang), nil
	case "STRDT":
		s, _ := extractString(args[0])
		dt, ok := args[1].(rdf.NamedNode)
		if !ok {
			return newError("STRDT datatype must be an IRI"), nil
		}
		return rdf.NewTypedLiteral(s, dt), nil
	case "STRBEFORE":
		a, _ := extractString(args[0])
		b, _ := extractString(args[1])
		if i := strings.Index(a, b); i >= 0 {
			return rdf.NewLiteral(a[:i]), nil
		}
		return rdf.NewLiteral(""), nil
	case "STRAFTER":
		a, _ := extractString(args[0])
		b, _ := extractString(args[1])
		if i := strings.Index(a, b); i >= 0 {
			return rdf.NewLiteral(a[i+len(b):]), nil
		}
		return rdf.NewLiteral(""), nil
	case "REPLACE":
		return evalReplace(args)
	case "MD5":
		return hashHex(args, md5.New()), nil
	case "SHA1":
		return hashHex(args, sha1.New()), nil
	case "SHA256":
		return hashHex(args, sha256.New()), nil
	case "SHA384":
		return hashHex(args, sha512.New384()), nil
	case "SHA512":
		return hashHex(args, sha512.New()), nil
	case "RAND":
		return numeric{kind: numDouble, val: pseudoRandom()}.literal(), nil
	}

	// A function name that is itself an absolute IRI denotes an XPath
	// constructor-style cast, e.g. xsd:integer(?x).
	if strings.Contains(e.Name, ":") {
		return castTo(rdf.NewNamedNode(e.Name), args[0])
	}
	return nil, fmt.Errorf("sparql: unsupported function %s", e.Name)
}

func evalSubstr(args []rdf.Term) (rdf.Term, error) {
	s, ok := extractString(args[0])
	if !ok {
		return newError("SUBSTR of non-string"), nil
	}
	r := []rune(s)
	startN, ok := asNumeric(args[1])
	if !ok {
		return newError("SUBSTR start not numeric"), nil
	}
	start := int(startN.val) - 1
	length := len(r) - max(start, 0)
	if len(args) > 2 {
		lenN, ok := asNumeric(args[2])
		if !ok {
			return newError("SUBSTR length not numeric"), nil
		}
		length = int(lenN.val)
	}
	if start < 0 {
		length += start
		start = 0
	}
	if start > len(r) {
		start = len(r)
	}
	end := start + length
	if end > len(r) || length < 0 {
		end = len(r)
	}
	if end < start {
		end = start
	}
	return rdf.NewLiteral(string(r[start:end])), nil
}

func evalRegex(args []rdf.Term) (rdf.Term, error) {
	s, _ := extractString(args[0])
	pattern, _ := extractString(args[1])
	flags := ""
	if len(args) > 2 {
		flags, _ = extractString(args[2])
	}
	goPattern := pattern
	if strings.Contains(flags, "i") {
		goPattern = "(?i)" + goPattern
	}
	if strings.Contains(flags, "s") {
		goPattern = "(?s)" + goPattern
	}
	if strings.Contains(flags, "m") {
		goPattern = "(?m)" + goPattern
	}
	re, err := regexp.Compile(goPattern)
	if err != nil {
		return newError("invalid regex: " + err.Error()), nil
	}
	return boolResult(re.MatchString(s)), nil
}

func langMatches(tag, rng string) bool {
	if rng == "*" {
		return tag != ""
	}
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	if tag == rng {
		return true
	}
	return strings.HasPrefix(tag, rng+"-")
}

func evalMathFunc(name string, args []rdf.Term) (rdf.Term, error) {
	n, ok := asNumeric(args[0])
	if !ok {
		return newError(name + " of non-numeric"), nil
	}
	switch strings.ToUpper(name) {
	case "ABS":
		if n.val < 0 {
			n.val = -n.val
		}
	case "CEIL":
		n.val = ceil(n.val)
		if n.kind == numInteger {
			n.kind = numDecimal
		}
	case "FLOOR":
		n.val = floor(n.val)
		if n.kind == numInteger {
			n.kind = numDecimal
		}
	case "ROUND":
		n.val = floor(n.val + 0.5)
		if n.kind == numInteger {
			n.kind = numDecimal
		}
	}
	return n.literal(), nil
}

func ceil(f float64) float64 {
	i := int64(f)
	if f > 0 && f != float64(i) {
		return float64(i + 1)
	}
	return float64(i)
}

func floor(f float64) float64 {
	i := int64(f)
	if f < 0 && f != float64(i) {
		return float64(i - 1)
	}
	return float64(i)
}

func castTo(datatype rdf.NamedNode, arg rdf.Term) (rdf.Term, error) {
	switch datatype.IRI {
	case rdf.XSDString.IRI:
		s, ok := extractString(arg)
		if !ok {
			return newError("cast to xsd:string failed"), nil
		}
		return rdf.NewLiteral(s), nil
	case rdf.XSDBoolean.IRI:
		s, ok := extractString(arg)
		if !ok {
			return newError("cast to xsd:boolean failed"), nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return newError("cast to xsd:boolean failed"), nil
		}
		return rdf.NewTypedLiteral(boolLexical(b), rdf.XSDBoolean), nil
	case rdf.XSDInteger.IRI, rdf.XSDDecimal.IRI, rdf.XSDFloat.IRI, rdf.XSDDouble.IRI:
		kind, _ := numKindOf(datatype)
		if n, ok := asNumeric(arg); ok {
			n.kind = kind
			if kind == numInteger {
				n.val = floor(n.val)
			}
			return n.literal(), nil
		}
		s, ok := extractString(arg)
		if !ok {
			return newError("numeric cast failed"), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return newError("numeric cast failed"), nil
		}
		if kind == numInteger {
			f = floor(f)
		}
		return numeric{kind: kind, val: f}.literal(), nil
	}
	return newError("unsupported cast target " + datatype.IRI), nil
}
