package parse

import (
	"strconv"
	"strings"

	"github.com/trigonrdf/trigon/rdf"
)

// base holds the scanner and blank-node scope shared by every grammar;
// each format's parser embeds it and adds its own directive/statement
// productions.
type base struct {
	s      *scanner
	bnodes *blankNodeScope
	strict bool // N-Triples/N-Quads: no @prefix/@base, no collections/property lists

	graph    rdf.Term   // current graph context (TriG); rdf.DefaultGraph{} otherwise
	produced []rdf.Quad // triples/quads emitted by the statement in progress
}

// parseTerm dispatches on the next byte to the production for IRI refs,
// prefixed names, blank nodes, literals, or (non-strict only) collections
// and blank-node property lists. It never consumes the trailing '.' or
// separator.
func (b *base) parseTerm() (rdf.Term, error) {
	b.s.skipWSAndComments()
	ch, ok := b.s.peek()
	if !ok {
		if b.s.needMore() {
			return nil, ErrNeedMoreInput
		}
		return nil, b.s.errorf("unexpected end of input, expected a term")
	}

	switch {
	case ch == '<':
		if qt, ok, err := b.tryParseQuotedTriple(); ok || err != nil {
			return qt, err
		}
		iri, err := b.parseIRIRef()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(b.s.resolveIRI(iri)), nil
	case ch == '_':
		return b.parseBlankNodeLabel()
	case ch == '"' || ch == '\'':
		return b.parseLiteral()
	case !b.strict && ch == '[':
		return b.parseBlankNodePropertyList()
	case !b.strict && ch == '(':
		return b.parseCollection()
	case !b.strict && ch == ':':
		return b.parsePrefixedName("")
	case !b.strict && (isPNCharBaseStart(ch) || ch == '_'):
		return b.parsePrefixedNameOrKeyword()
	case !b.strict && (ch == '+' || ch == '-' || ch == '.' || (ch >= '0' && ch <= '9')):
		return b.parseNumericLiteral()
	default:
		return nil, b.s.errorf("unexpected character %q, expected a term", ch)
	}
}

func isPNCharBaseStart(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch >= 0x80
}

// parseIRIRef parses <...>, unescaping \uXXXX/\UXXXXXXXX and the single
// backslash escapes the grammar allows inside an IRIREF.
func (b *base) parseIRIRef() (string, error) {
	if !b.s.matchByte('<') {
		return "", b.s.errorf("expected '<'")
	}
	var out strings.Builder
	for {
		ch, ok := b.s.peek()
		if !ok {
			if b.s.needMore() {
				return "", ErrNeedMoreInput
			}
			return "", b.s.errorf("unterminated IRI reference")
		}
		if ch == '>' {
			b.s.advance()
			return out.String(), nil
		}
		if ch == '\\' {
			r, err := b.parseUnicodeEscape()
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			continue
		}
		if ch <= 0x20 || ch == '<' || ch == '"' || ch == '{' || ch == '}' || ch == '|' || ch == '^' || ch == '`' {
			return "", b.s.errorf("invalid character %q in IRI reference", ch)
		}
		out.WriteByte(ch)
		b.s.advance()
	}
}

func (b *base) parseUnicodeEscape() (rune, error) {
	if !b.s.matchByte('\\') {
		return 0, b.s.errorf("expected escape")
	}
	ch, ok := b.s.peek()
	if !ok {
		if b.s.needMore() {
			return 0, ErrNeedMoreInput
		}
		return 0, b.s.errorf("unterminated escape")
	}
	switch ch {
	case 'u':
		return b.parseHexEscape(4)
	case 'U':
		return b.parseHexEscape(8)
	case 't':
		b.s.advance()
		return '\t', nil
	case 'n':
		b.s.advance()
		return '\n', nil
	case 'r':
		b.s.advance()
		return '\r', nil
	case 'b':
		b.s.advance()
		return '\b', nil
	case 'f':
		b.s.advance()
		return '\f', nil
	case '"', '\'', '\\':
		b.s.advance()
		return rune(ch), nil
	default:
		return 0, b.s.errorf("invalid escape \\%c", ch)
	}
}

func (b *base) parseHexEscape(n int) (rune, error) {
	b.s.advance() // 'u' or 'U'
	if b.s.pos+n > len(b.s.buf) {
		if b.s.needMore() {
			return 0, ErrNeedMoreInput
		}
		return 0, b.s.errorf("truncated unicode escape")
	}
	hex := string(b.s.buf[b.s.pos : b.s.pos+n])
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, b.s.errorf("invalid unicode escape %q", hex)
	}
	b.s.advanceN(n)
	return rune(v), nil
}

// parsePrefixedName parses the PN_LOCAL half of prefix:local, given an
// already-consumed prefix (possibly empty for the default ":" prefix).
func (b *base) parsePrefixedName(prefix string) (rdf.Term, error) {
	if !b.s.matchByte(':') {
		return nil, b.s.errorf("expected ':' in prefixed name")
	}
	var local strings.Builder
	for {
		ch, ok := b.s.peek()
		if !ok {
			break
		}
		if ch == '\\' {
			b.s.advance()
			esc, ok := b.s.peek()
			if !ok {
				if b.s.needMore() {
					return nil, ErrNeedMoreInput
				}
				return nil, b.s.errorf("truncated escape in local name")
			}
			local.WriteByte(esc)
			b.s.advance()
			continue
		}
		if isPNChar(rune(ch)) || ch == '.' || ch == ':' || ch == '%' {
			local.WriteByte(ch)
			b.s.advance()
			continue
		}
		break
	}
	ns, ok := b.s.prefixes[prefix]
	if !ok {
		return nil, b.s.errorf("unbound prefix %q", prefix)
	}
	return rdf.NewNamedNode(ns + strings.TrimSuffix(local.String(), ".")), nil
}

// parsePrefixedNameOrKeyword handles the "a" rdf:type shortcut, true/
// false booleans, and ordinary prefix:local names, all of which start
// with an identifier character at the term-grammar level.
func (b *base) parsePrefixedNameOrKeyword() (rdf.Term, error) {
	start := b.s.mark()
	var name strings.Builder
	for {
		ch, ok := b.s.peek()
		if !ok || !(isPNChar(rune(ch)) && ch != ':') {
			break
		}
		name.WriteByte(ch)
		b.s.advance()
	}
	word := name.String()

	if ch, ok := b.s.peek(); ok && ch == ':' {
		return b.parsePrefixedName(word)
	}

	switch word {
	case "a":
		return rdf.RDFType, nil
	case "true":
		return rdf.NewTypedLiteral("true", rdf.XSDBoolean), nil
	case "false":
		return rdf.NewTypedLiteral("false", rdf.XSDBoolean), nil
	}
	b.s.reset(start)
	return nil, b.s.errorf("unrecognized token")
}

func (b *base) parseBlankNodeLabel() (rdf.Term, error) {
	if !b.s.matchLiteral("_:") {
		return nil, b.s.errorf("expected '_:'")
	}
	var label strings.Builder
	for {
		ch, ok := b.s.peek()
		if !ok || !(isPNChar(rune(ch)) || ch == '.') {
			break
		}
		label.WriteByte(ch)
		b.s.advance()
	}
	return b.bnodes.resolve(strings.TrimSuffix(label.String(), ".")), nil
}

// parseLiteral parses a quoted string (short "..." or long """...""")
// followed by an optional language tag or ^^datatype.
func (b *base) parseLiteral() (rdf.Term, error) {
	value, err := b.parseQuotedString()
	if err != nil {
		return nil, err
	}

	if b.s.matchByte('@') {
		var lang strings.Builder
		for {
			ch, ok := b.s.peek()
			if !ok {
				break
			}
			if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '-' || (ch >= '0' && ch <= '9') {
				lang.WriteByte(ch)
				b.s.advance()
				continue
			}
			break
		}
		return rdf.NewLangLiteral(value, lang.String()), nil
	}

	if b.s.matchLiteral("^^") {
		dt, err := b.parseTerm()
		if err != nil {
			return nil, err
		}
		nn, ok := dt.(rdf.NamedNode)
		if !ok {
			return nil, b.s.errorf("literal datatype must be an IRI")
		}
		return rdf.NewTypedLiteral(value, nn), nil
	}

	return rdf.NewLiteral(value), nil
}

func (b *base) parseQuotedString() (string, error) {
	quote, ok := b.s.peek()
	if !ok {
		if b.s.needMore() {
			return "", ErrNeedMoreInput
		}
		return "", b.s.errorf("expected a quoted string")
	}
	long := b.s.matchLiteral(strings.Repeat(string(quote), 3))
	if !long {
		b.s.advance()
	}

	var out strings.Builder
	for {
		ch, ok := b.s.peek()
		if !ok {
			if b.s.needMore() {
				return "", ErrNeedMoreInput
			}
			return "", b.s.errorf("unterminated string literal")
		}
		if ch == '\\' {
			r, err := b.parseUnicodeEscape()
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			continue
		}
		if long {
			if b.s.matchLiteral(strings.Repeat(string(quote), 3)) {
				return out.String(), nil
			}
		} else if ch == quote {
			b.s.advance()
			return out.String(), nil
		} else if ch == '\n' {
			return "", b.s.errorf("unescaped newline in short string literal")
		}
		out.WriteByte(ch)
		b.s.advance()
	}
}

// parseNumericLiteral parses the Turtle INTEGER/DECIMAL/DOUBLE
// shorthand, returning the appropriate typed literal.
func (b *base) parseNumericLiteral() (rdf.Term, error) {
	var lit strings.Builder
	if ch, ok := b.s.peek(); ok && (ch == '+' || ch == '-') {
		lit.WriteByte(ch)
		b.s.advance()
	}
	sawDigit := false
	for {
		ch, ok := b.s.peek()
		if !ok || ch < '0' || ch > '9' {
			break
		}
		sawDigit = true
		lit.WriteByte(ch)
		b.s.advance()
	}
	isDouble := false
	isDecimal := false
	if ch, ok := b.s.peek(); ok && ch == '.' {
		if next, ok := b.s.peekAt(1); !ok || next >= '0' && next <= '9' {
			isDecimal = true
			lit.WriteByte('.')
			b.s.advance()
			for {
				ch, ok := b.s.peek()
				if !ok || ch < '0' || ch > '9' {
					break
				}
				sawDigit = true
				lit.WriteByte(ch)
				b.s.advance()
			}
		}
	}
	if ch, ok := b.s.peek(); ok && (ch == 'e' || ch == 'E') {
		isDouble = true
		lit.WriteByte(ch)
		b.s.advance()
		if ch, ok := b.s.peek(); ok && (ch == '+' || ch == '-') {
			lit.WriteByte(ch)
			b.s.advance()
		}
		for {
			ch, ok := b.s.peek()
			if !ok || ch < '0' || ch > '9' {
				break
			}
			lit.WriteByte(ch)
			b.s.advance()
		}
	}
	if !sawDigit {
		return nil, b.s.errorf("malformed numeric literal %q", lit.String())
	}
	switch {
	case isDouble:
		return rdf.NewTypedLiteral(lit.String(), rdf.XSDDouble), nil
	case isDecimal:
		return rdf.NewTypedLiteral(lit.String(), rdf.XSDDecimal), nil
	default:
		return rdf.NewTypedLiteral(lit.String(), rdf.XSDInteger), nil
	}
}
