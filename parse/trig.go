package parse

import "github.com/trigonrdf/trigon/rdf"

// TriGParser recognizes the TriG grammar: Turtle plus an optional
// "GRAPH? graph-term { triples }" block wrapping a set of triples in a
// named graph. Triples outside any block belong to the default graph.
type TriGParser struct{ b *base }

func newTriGParser(policy BlankNodePolicy) *TriGParser {
	return &TriGParser{b: &base{s: newScanner(), bnodes: newBlankNodeScope(policy, ""), graph: rdf.NewDefaultGraph()}}
}

func (p *TriGParser) parseOne() ([]rdf.Quad, error) {
	return parseTurtleLikeStatement(p.b, p.parseStatement)
}

func (p *TriGParser) parseStatement() error {
	b := p.b
	if handled, err := parseDirective(b); handled || err != nil {
		return err
	}

	if ch, ok := b.s.peek(); ok && ch == '{' {
		return p.parseGraphBlock()
	}

	if b.s.matchKeyword("GRAPH") {
		b.s.skipWSAndComments()
		g, err := b.parseTerm()
		if err != nil {
			return err
		}
		switch g.(type) {
		case rdf.NamedNode, rdf.BlankNode:
		default:
			return b.s.errorf("graph name must be an IRI or blank node")
		}
		b.s.skipWSAndComments()
		return p.parseGraphBlockWithName(g)
	}

	// Either a bare "graph-term { ... }" block (the GRAPH keyword is
	// optional in TriG) or an ordinary default-graph triple statement.
	sp := b.s.mark()
	term, err := b.parseTerm()
	if err != nil {
		return err
	}
	b.s.skipWSAndComments()
	if ch, ok := b.s.peek(); ok && ch == '{' {
		switch term.(type) {
		case rdf.NamedNode, rdf.BlankNode:
			return p.parseGraphBlockWithName(term)
		default:
			return b.s.errorf("graph name must be an IRI or blank node")
		}
	}
	b.s.reset(sp)
	return p.parseTripleStatement()
}

func (p *TriGParser) parseTripleStatement() error {
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

// parseGraphBlock parses "{ triplesBlock }" for the default graph
// (the bare, keyword-less default-graph block TriG permits).
func (p *TriGParser) parseGraphBlock() error {
	return p.parseGraphBlockWithName(rdf.NewDefaultGraph())
}

func (p *TriGParser) parseGraphBlockWithName(graph rdf.Term) error {
	b := p.b
	if !b.s.matchByte('{') {
		return b.s.errorf("expected '{'")
	}
	prevGraph := b.graph
	b.graph = graph
	defer func() { b.graph = prevGraph }()

	for {
		b.s.skipWSAndComments()
		ch, ok := b.s.peek()
		if !ok {
			if b.s.needMore() {
				return ErrNeedMoreInput
			}
			return b.s.errorf("unterminated graph block")
		}
		if ch == '}' {
			b.s.advance()
			return nil
		}
		if err := p.parseTripleStatement(); err != nil {
			return err
		}
	}
}

func (p *TriGParser) write(data []byte)             { p.b.s.write(data) }
func (p *TriGParser) closeInput()                   { p.b.s.close() }
func (p *TriGParser) prefixes() map[string]string   { return p.b.s.prefixes }
