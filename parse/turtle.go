package parse

import (
	"io"

	"github.com/trigonrdf/trigon/rdf"
)

// TurtleParser recognizes the Turtle grammar: @prefix/@base/PREFIX/BASE
// directives, triples with the "a" shortcut, blank-node property lists,
// collections, and RDF-star quoted triples, all in the default graph.
type TurtleParser struct{ b *base }

func newTurtleParser(policy BlankNodePolicy) *TurtleParser {
	return &TurtleParser{b: &base{s: newScanner(), bnodes: newBlankNodeScope(policy, ""), graph: rdf.NewDefaultGraph()}}
}

func (p *TurtleParser) parseOne() ([]rdf.Quad, error) {
	return parseTurtleLikeStatement(p.b, p.parseDirectiveOrTriple)
}

// parseTurtleLikeStatement is shared between Turtle and TriG: skip
// whitespace/comments, detect end-of-document, then hand off to the
// format-specific statement production, rewinding on suspension.
func parseTurtleLikeStatement(b *base, parseStatement func() error) ([]rdf.Quad, error) {
	sp := b.s.mark()
	b.s.skipWSAndComments()
	if b.s.eof() {
		if b.s.needMore() {
			return nil, ErrNeedMoreInput
		}
		return nil, io.EOF
	}

	b.produced = nil
	if err := parseStatement(); err != nil {
		b.s.reset(sp)
		b.produced = nil
		return nil, err
	}
	out := b.produced
	b.produced = nil
	return out, nil
}

func (p *TurtleParser) parseDirectiveOrTriple() error {
	b := p.b
	if handled, err := parseDirective(b); handled || err != nil {
		return err
	}
	return p.parseTripleStatement()
}

func (p *TurtleParser) parseTripleStatement() error {
	b := p.b
	subject, err := b.parseTerm()
	if err != nil {
		return err
	}
	b.s.skipWSAndComments()
	if err := b.parsePredicateObjectList(subject); err != nil {
		return err
	}
	b.s.skipWSAndComments()
	if !b.s.matchByte('.') {
		if b.s.needMore() {
			return ErrNeedMoreInput
		}
		return b.s.errorf("expected '.' to terminate statement")
	}
	return nil
}

func (p *TurtleParser) write(data []byte) { p.b.s.write(data) }
func (p *TurtleParser) closeInput()       { p.b.s.close() }
func (p *TurtleParser) prefixes() map[string]string { return p.b.s.prefixes }

// parseDirective handles @prefix/@base/PREFIX/BASE, shared by Turtle and
// TriG. handled is false if the next statement isn't a directive at all.
func parseDirective(b *base) (handled bool, err error) {
	sp := b.s.mark()

	if b.s.matchLiteral("@prefix") || b.s.matchKeyword("PREFIX") {
		isAt := b.s.buf[sp.pos] == '@'
		b.s.skipWSAndComments()
		name, err := parsePrefixLabel(b.s)
		if err != nil {
			return true, err
		}
		b.s.skipWSAndComments()
		iri, err := b.parseIRIRef()
		if err != nil {
			return true, err
		}
		b.s.prefixes[name] = iri
		b.s.skipWSAndComments()
		if isAt {
			if !b.s.matchByte('.') {
				if b.s.needMore() {
					return true, ErrNeedMoreInput
				}
				return true, b.s.errorf("expected '.' after @prefix directive")
			}
		} else {
			b.s.matchByte('.')
		}
		return true, nil
	}

	if b.s.matchLiteral("@base") || b.s.matchKeyword("BASE") {
		isAt := b.s.buf[sp.pos] == '@'
		b.s.skipWSAndComments()
		iri, err := b.parseIRIRef()
		if err != nil {
			return true, err
		}
		b.s.baseIRI = iri
		b.s.skipWSAndComments()
		if isAt {
			if !b.s.matchByte('.') {
				if b.s.needMore() {
					return true, ErrNeedMoreInput
				}
				return true, b.s.errorf("expected '.' after @base directive")
			}
		} else {
			b.s.matchByte('.')
		}
		return true, nil
	}

	return false, nil
}

// parsePrefixLabel parses the "name:" half of a prefix declaration.
func parsePrefixLabel(s *scanner) (string, error) {
	start := s.pos
	for {
		ch, ok := s.peek()
		if !ok {
			if s.needMore() {
				return "", ErrNeedMoreInput
			}
			return "", s.errorf("unterminated prefix declaration")
		}
		if ch == ':' {
			name := string(s.buf[start:s.pos])
			s.advance()
			return name, nil
		}
		s.advance()
	}
}
