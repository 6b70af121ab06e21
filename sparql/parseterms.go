package sparql

import (
	"strconv"
	"strings"

	"github.com/trigonrdf/trigon/rdf"
)

// parseVar reads a "?name" or "$name" variable reference.
func (p *parser) parseVar() (Var, error) {
	p.s.skipWS()
	c := p.s.peek()
	if c != '?' && c != '$' {
		return "", newSyntaxError(p.s.pos, "expected a variable")
	}
	p.s.pos++
	name := p.s.readIdent()
	if name == "" {
		return "", newSyntaxError(p.s.pos, "expected variable name")
	}
	return Var(name), nil
}

// parseVarOrTerm parses a variable or a plain (non-collection,
// non-property-list) RDF term -- used wherever the grammar allows either,
// such as GRAPH's or SERVICE's name.
func (p *parser) parseVarOrTerm() (any, error) {
	p.s.skipWS()
	if c := p.s.peek(); c == '?' || c == '$' {
		return p.parseVar()
	}
	return p.parseTerm()
}

// parseTerm parses one plain RDF term: an IRI, a prefixed name, a blank
// node label, a quoted string literal with optional language tag or
// datatype, a numeric literal shorthand, or true/false.
func (p *parser) parseTerm() (rdf.Term, error) {
	p.s.skipWS()
	c := p.s.peek()
	switch {
	case c == '<':
		if p.s.peekAt(1) == '<' {
			return p.parseQuotedTriple()
		}
		iri, err := p.s.readIRIRef()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(p.resolveIRI(iri)), nil

	case c == '_':
		return p.parseBlankNodeLabel()

	case c == '"' || c == '\'':
		return p.parseRDFLiteral()

	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumericLiteral()

	case c == ':' || isPNCharStart(c):
		return p.parsePrefixedNameOrKeyword()

	default:
		return nil, newSyntaxError(p.s.pos, "unexpected character %q, expected a term", c)
	}
}

func (p *parser) parseQuotedTriple() (rdf.Term, error) {
	p.s.pos += 2 // "<<"
	s, err := p.parseGraphNode(nil)
	if err != nil {
		return nil, err
	}
	pred, err := p.parseVarOrTerm()
	if err != nil {
		return nil, err
	}
	o, err := p.parseGraphNode(nil)
	if err != nil {
		return nil, err
	}
	p.s.skipWS()
	if !p.s.matchLiteral(">>") {
		return nil, newSyntaxError(p.s.pos, "expected '>>'")
	}
	st, sok := s.(rdf.Term)
	pt, pok := pred.(rdf.Term)
	ot, ook := o.(rdf.Term)
	if !sok || !pok || !ook {
		return nil, newSyntaxError(p.s.pos, "quoted triple term cannot contain a variable here")
	}
	qt, err := rdf.NewQuotedTriple(st, pt, ot)
	if err != nil {
		return nil, newSyntaxError(p.s.pos, "%s", err.Error())
	}
	return qt, nil
}

func (p *parser) parseBlankNodeLabel() (rdf.Term, error) {
	if !p.s.matchLiteral("_:") {
		return nil, newSyntaxError(p.s.pos, "expected '_:'")
	}
	label := p.s.readIdent()
	if label == "" {
		p.genCount++
		label = "b" + strconv.Itoa(p.genCount)
	}
	return rdf.NewBlankNode(label), nil
}

func (p *parser) parseRDFLiteral() (rdf.Term, error) {
	value, err := p.s.readQuotedString()
	if err != nil {
		return nil, err
	}
	if p.s.matchByte('@') {
		start := p.s.pos
		for !p.s.eof() {
			c := p.s.input[p.s.pos]
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || (c >= '0' && c <= '9') {
				p.s.pos++
				continue
			}
			break
		}
		return rdf.NewLangLiteral(value, p.s.input[start:p.s.pos]), nil
	}
	if p.s.matchLiteral("^^") {
		dt, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		nn, ok := dt.(rdf.NamedNode)
		if !ok {
			return nil, newSyntaxError(p.s.pos, "literal datatype must be an IRI")
		}
		return rdf.NewTypedLiteral(value, nn), nil
	}
	return rdf.NewLiteral(value), nil
}

func (p *parser) parseNumericLiteral() (rdf.Term, error) {
	start := p.s.pos
	if c := p.s.peek(); c == '+' || c == '-' {
		p.s.pos++
	}
	sawDigit := false
	for !p.s.eof() && p.s.input[p.s.pos] >= '0' && p.s.input[p.s.pos] <= '9' {
		sawDigit = true
		p.s.pos++
	}
	isDouble, isDecimal := false, false
	if p.s.peek() == '.' {
		nxt := p.s.peekAt(1)
		if nxt >= '0' && nxt <= '9' {
			isDecimal = true
			p.s.pos++
			for !p.s.eof() && p.s.input[p.s.pos] >= '0' && p.s.input[p.s.pos] <= '9' {
				sawDigit = true
				p.s.pos++
			}
		}
	}
	if c := p.s.peek(); c == 'e' || c == 'E' {
		isDouble = true
		p.s.pos++
		if c := p.s.peek(); c == '+' || c == '-' {
			p.s.pos++
		}
		for !p.s.eof() && p.s.input[p.s.pos] >= '0' && p.s.input[p.s.pos] <= '9' {
			p.s.pos++
		}
	}
	if !sawDigit {
		return nil, newSyntaxError(start, "malformed numeric literal")
	}
	lit := p.s.input[start:p.s.pos]
	switch {
	case isDouble:
		return rdf.NewTypedLiteral(lit, rdf.XSDDouble), nil
	case isDecimal:
		return rdf.NewTypedLiteral(lit, rdf.XSDDecimal), nil
	default:
		return rdf.NewTypedLiteral(lit, rdf.XSDInteger), nil
	}
}

func (p *parser) parsePrefixedNameOrKeyword() (rdf.Term, error) {
	if p.s.peek() == ':' {
		_, local := p.readPNameFrom("")
		ns, ok := p.prefixes[""]
		if !ok {
			return nil, newSyntaxError(p.s.pos, "unbound default prefix ':'")
		}
		return rdf.NewNamedNode(ns + local), nil
	}

	start := p.s.pos
	word := p.s.readIdent()

	if p.s.peek() == ':' {
		_, local := p.readPNameFrom(word)
		ns, ok := p.prefixes[word]
		if !ok {
			return nil, newSyntaxError(p.s.pos, "unbound prefix %q", word)
		}
		return rdf.NewNamedNode(ns + local), nil
	}

	switch word {
	case "a":
		return rdf.RDFType, nil
	case "true":
		return rdf.NewTypedLiteral("true", rdf.XSDBoolean), nil
	case "false":
		return rdf.NewTypedLiteral("false", rdf.XSDBoolean), nil
	}
	p.s.pos = start
	return nil, newSyntaxError(p.s.pos, "unrecognized token %q", word)
}

// readPNameFrom consumes the ':' plus local-name part of prefix:local,
// given prefix already read from the input.
func (p *parser) readPNameFrom(prefix string) (string, string) {
	p.s.pos++ // ':'
	start := p.s.pos
	for !p.s.eof() {
		c := p.s.input[p.s.pos]
		if isPNChar(rune(c)) || c == '.' || c == '%' {
			p.s.pos++
			continue
		}
		break
	}
	local := strings.TrimSuffix(p.s.input[start:p.s.pos], ".")
	p.s.pos = start + len(local)
	return prefix, local
}

func (p *parser) parseIRITerm() (rdf.Term, error) {
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, ok := t.(rdf.NamedNode); !ok {
		return nil, newSyntaxError(p.s.pos, "expected an IRI")
	}
	return t, nil
}

// resolveIRI resolves a possibly-relative IRI reference against the
// query's BASE, matching the Turtle-family resolution rule (design
// §3's parser already implements this for the codec family; the SPARQL
// grammar only needs the simple no-base-segments case since queries
// rarely use relative IRIs).
func (p *parser) resolveIRI(iri string) string {
	if p.base == "" || strings.Contains(iri, "://") {
		return iri
	}
	if strings.HasPrefix(iri, "#") {
		return strings.TrimSuffix(p.base, "#") + iri
	}
	return p.base + iri
}

// parseGraphNode parses a subject or object position: a variable, a
// plain term, a collection "( ... )", or a blank-node property list
// "[ ... ]". Collections and property lists append the triples they
// imply to out and return the head term (the collection's head blank
// node, or [ ]'s own blank node).
func (p *parser) parseGraphNode(out *[]PathTriple) (any, error) {
	p.s.skipWS()
	switch p.s.peek() {
	case '?', '$':
		return p.parseVar()
	case '(':
		return p.parseCollection(out)
	case '[':
		return p.parseBlankNodePropertyList(out)
	default:
		return p.parseTerm()
	}
}

func (p *parser) parseCollection(out *[]PathTriple) (any, error) {
	p.s.pos++ // '('
	var items []any
	for {
		p.s.skipWS()
		if p.s.peek() == ')' {
			p.s.pos++
			break
		}
		item, err := p.parseGraphNode(out)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return rdf.RDFNil, nil
	}
	if out == nil {
		return nil, newSyntaxError(p.s.pos, "collection not permitted here")
	}
	head := p.newBlankNode()
	cur := head
	for i, item := range items {
		*out = append(*out, PathTriple{Subject: cur, Path: PredicatePath{Predicate: rdf.RDFFirst}, Object: item})
		if i == len(items)-1 {
			*out = append(*out, PathTriple{Subject: cur, Path: PredicatePath{Predicate: rdf.RDFRest}, Object: rdf.RDFNil})
			break
		}
		next := p.newBlankNode()
		*out = append(*out, PathTriple{Subject: cur, Path: PredicatePath{Predicate: rdf.RDFRest}, Object: next})
		cur = next
	}
	return head, nil
}

func (p *parser) parseBlankNodePropertyList(out *[]PathTriple) (any, error) {
	p.s.pos++ // '['
	subj := p.newBlankNode()
	p.s.skipWS()
	if p.s.peek() == ']' {
		p.s.pos++
		return subj, nil
	}
	if out == nil {
		return nil, newSyntaxError(p.s.pos, "blank node property list not permitted here")
	}
	if err := p.parsePredicateObjectList(subj, out); err != nil {
		return nil, err
	}
	p.s.skipWS()
	if !p.s.matchByte(']') {
		return nil, newSyntaxError(p.s.pos, "expected ']'")
	}
	return subj, nil
}

func (p *parser) newBlankNode() rdf.Term {
	p.genCount++
	return rdf.NewBlankNode(".b" + strconv.Itoa(p.genCount))
}

// parsePredicateObjectList parses "verb objectList (';' verb objectList)*"
// and appends the resulting PathTriples to out.
func (p *parser) parsePredicateObjectList(subj any, out *[]PathTriple) error {
	for {
		path, err := p.parseVerb()
		if err != nil {
			return err
		}
		if err := p.parseObjectList(subj, path, out); err != nil {
			return err
		}
		p.s.skipWS()
		if !p.s.matchByte(';') {
			return nil
		}
		p.s.skipWS()
		if p.s.peek() == '.' || p.s.peek() == '}' || p.s.peek() == ']' || p.s.isClauseKeywordAhead() {
			return nil
		}
	}
}

func (p *parser) parseObjectList(subj any, path PathExpr, out *[]PathTriple) error {
	for {
		obj, err := p.parseGraphNode(out)
		if err != nil {
			return err
		}
		*out = append(*out, PathTriple{Subject: subj, Path: path, Object: obj})
		p.s.skipWS()
		if !p.s.matchByte(',') {
			return nil
		}
	}
}

// parseVerb parses a triple's predicate position: the "a" shortcut or a
// full property path expression.
func (p *parser) parseVerb() (PathExpr, error) {
	p.s.skipWS()
	if p.s.matchKeyword("a") {
		return PredicatePath{Predicate: rdf.RDFType}, nil
	}
	if c := p.s.peek(); c == '?' || c == '$' {
		v, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		return varPath{v: v}, nil
	}
	return p.parsePathAlternative()
}

// varPath lets a variable appear in predicate position by wrapping it in
// the PathExpr interface; asTriplePattern turns a triple with a varPath
// predicate into an ordinary TriplePattern scan.
type varPath struct{ v Var }

func (varPath) pathNode() {}

func (p *parser) parsePathAlternative() (PathExpr, error) {
	left, err := p.parsePathSequence()
	if err != nil {
		return nil, err
	}
	for {
		p.s.skipWS()
		if !p.s.matchByte('|') {
			return left, nil
		}
		right, err := p.parsePathSequence()
		if err != nil {
			return nil, err
		}
		left = AlternativePath{Left: left, Right: right}
	}
}

func (p *parser) parsePathSequence() (PathExpr, error) {
	left, err := p.parsePathEltOrInverse()
	if err != nil {
		return nil, err
	}
	for {
		p.s.skipWS()
		if !p.s.matchByte('/') {
			return left, nil
		}
		right, err := p.parsePathEltOrInverse()
		if err != nil {
			return nil, err
		}
		left = SequencePath{Left: left, Right: right}
	}
}

func (p *parser) parsePathEltOrInverse() (PathExpr, error) {
	p.s.skipWS()
	if p.s.matchByte('^') {
		elt, err := p.parsePathElt()
		if err != nil {
			return nil, err
		}
		return InversePath{Path: elt}, nil
	}
	return p.parsePathElt()
}

func (p *parser) parsePathElt() (PathExpr, error) {
	primary, err := p.parsePathPrimary()
	if err != nil {
		return nil, err
	}
	p.s.skipWS()
	switch {
	case p.s.matchByte('*'):
		return ZeroOrMorePath{Path: primary}, nil
	case p.s.matchByte('+'):
		return OneOrMorePath{Path: primary}, nil
	case p.s.peek() == '?' && !isPNChar(rune(p.s.peekAt(1))):
		// A '?' directly followed by a name character starts the object
		// variable, not the zero-or-one modifier.
		p.s.pos++
		return ZeroOrOnePath{Path: primary}, nil
	}
	return primary, nil
}

func (p *parser) parsePathPrimary() (PathExpr, error) {
	p.s.skipWS()
	switch {
	case p.s.matchByte('('):
		inner, err := p.parsePathAlternative()
		if err != nil {
			return nil, err
		}
		if !p.s.matchByte(')') {
			return nil, newSyntaxError(p.s.pos, "expected ')' in path expression")
		}
		return inner, nil
	case p.s.matchByte('!'):
		return p.parseNegatedPropertySet()
	case p.s.matchKeyword("a"):
		return PredicatePath{Predicate: rdf.RDFType}, nil
	default:
		t, err := p.parseIRITerm()
		if err != nil {
			return nil, err
		}
		return PredicatePath{Predicate: t}, nil
	}
}

func (p *parser) parseNegatedPropertySet() (PathExpr, error) {
	p.s.skipWS()
	var preds []rdf.Term
	var inv []bool
	parseOne := func() error {
		inverse := p.s.matchByte('^')
		t, err := p.parseIRITerm()
		if err != nil {
			return err
		}
		preds = append(preds, t)
		inv = append(inv, inverse)
		return nil
	}
	if p.s.matchByte('(') {
		p.s.skipWS()
		if p.s.peek() != ')' {
			if err := parseOne(); err != nil {
				return nil, err
			}
			for {
				p.s.skipWS()
				if !p.s.matchByte('|') {
					break
				}
				if err := parseOne(); err != nil {
					return nil, err
				}
			}
		}
		if !p.s.matchByte(')') {
			return nil, newSyntaxError(p.s.pos, "expected ')' in negated property set")
		}
	} else {
		if err := parseOne(); err != nil {
			return nil, err
		}
	}
	return NegatedPropertySet{Predicates: preds, Inverse: inv}, nil
}
