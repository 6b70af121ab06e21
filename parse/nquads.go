package parse

import (
	"io"

	"github.com/trigonrdf/trigon/rdf"
)

// NQuadsParser recognizes the N-Quads grammar: N-Triples extended with
// an optional graph-name term before the terminating '.'.
type NQuadsParser struct{ b *base }

func newNQuadsParser(policy BlankNodePolicy) *NQuadsParser {
	return &NQuadsParser{b: &base{s: newScanner(), bnodes: newBlankNodeScope(policy, ""), strict: true}}
}

func (p *NQuadsParser) parseOne() ([]rdf.Quad, error) {
	b := p.b
	sp := b.s.mark()

	b.s.skipWSAndComments()
	if b.s.eof() {
		if b.s.needMore() {
			return nil, ErrNeedMoreInput
		}
		return nil, io.EOF
	}

	b.produced = nil
	if err := p.parseQuad(); err != nil {
		b.s.reset(sp)
		b.produced = nil
		return nil, err
	}
	out := b.produced
	b.produced = nil
	return out, nil
}

func (p *NQuadsParser) parseQuad() error {
	b := p.b
	subject, err := b.parseTerm()
	if err != nil {
		return err
	}
	if _, ok := subject.(rdf.QuotedTriple); !ok {
		if _, ok := subject.(rdf.NamedNode); !ok {
			if _, ok := subject.(rdf.BlankNode); !ok {
				return b.s.errorf("subject must be an IRI, blank node, or quoted triple")
			}
		}
	}

	b.s.skipWSAndComments()
	predicate, err := b.parseTerm()
	if err != nil {
		return err
	}
	predNode, ok := predicate.(rdf.NamedNode)
	if !ok {
		return b.s.errorf("predicate must be an IRI")
	}

	b.s.skipWSAndComments()
	object, err := b.parseTerm()
	if err != nil {
		return err
	}

	b.s.skipWSAndComments()
	graph := rdf.Term(rdf.NewDefaultGraph())
	if ch, ok := b.s.peek(); ok && ch != '.' {
		g, err := b.parseTerm()
		if err != nil {
			return err
		}
		switch g.(type) {
		case rdf.NamedNode, rdf.BlankNode:
			graph = g
		default:
			return b.s.errorf("graph name must be an IRI or blank node")
		}
		b.s.skipWSAndComments()
	}

	if !b.s.matchByte('.') {
		if b.s.needMore() {
			return ErrNeedMoreInput
		}
		return b.s.errorf("expected '.' to terminate statement")
	}

	b.produced = append(b.produced, rdf.NewQuad(subject, predNode, object, graph))
	return nil
}

func (p *NQuadsParser) write(data []byte) { p.b.s.write(data) }
func (p *NQuadsParser) closeInput()       { p.b.s.close() }
func (p *NQuadsParser) prefixes() map[string]string { return p.b.s.prefixes }
