package parse

import (
	"io"

	"github.com/trigonrdf/trigon/rdf"
)

// NTriplesParser recognizes the N-Triples grammar: one
// "subject predicate object ." statement per line, default graph only,
// no prefixes, no collections or property lists.
type NTriplesParser struct{ b *base }

func newNTriplesParser(policy BlankNodePolicy) *NTriplesParser {
	return &NTriplesParser{b: &base{s: newScanner(), bnodes: newBlankNodeScope(policy, ""), strict: true, graph: rdf.NewDefaultGraph()}}
}

// parseOne attempts to parse the next statement. It returns
// (nil, ErrNeedMoreInput) if the buffer doesn't yet hold a full
// statement and Close hasn't been called, (nil, io.EOF) once the
// document is exhausted, or exactly one quad on success.
func (p *NTriplesParser) parseOne() ([]rdf.Quad, error) {
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
	if err := p.parseTriple(); err != nil {
		b.s.reset(sp)
		b.produced = nil
		return nil, err
	}
	out := b.produced
	b.produced = nil
	return out, nil
}

func (p *NTriplesParser) parseTriple() error {
	b := p.b
	subject, err := b.parseTerm()
	if err != nil {
		return err
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
	if !b.s.matchByte('.') {
		if b.s.needMore() {
			return ErrNeedMoreInput
		}
		return b.s.errorf("expected '.' to terminate statement")
	}
	b.addTriple(subject, predNode, object)
	return nil
}

func (p *NTriplesParser) write(data []byte) { p.b.s.write(data) }
func (p *NTriplesParser) closeInput()       { p.b.s.close() }
func (p *NTriplesParser) prefixes() map[string]string { return p.b.s.prefixes }
