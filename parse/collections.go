package parse

import "github.com/trigonrdf/trigon/rdf"

// addTriple records a triple/quad produced mid-statement (by a
// blank-node property list, a collection, or the top-level subject
// predicate object production) against the current graph context.
// Nothing here is visible to callers until the enclosing statement
// finishes parsing successfully and the document-level parser drains
// produced -- a syntax error partway through a statement discards
// everything the statement had produced so far.
func (b *base) addTriple(s, p, o rdf.Term) {
	b.produced = append(b.produced, rdf.NewQuad(s, p, o, b.graph))
}

// parsePredicateObjectList parses "predicate objectList (';' predicate
// objectList)*", emitting one triple per (predicate, object) pair with
// subject held fixed. Used both for top-level triples and for blank-node
// property lists, which differ only in how the subject term was
// obtained.
func (b *base) parsePredicateObjectList(subject rdf.Term) error {
	for {
		b.s.skipWSAndComments()
		pred, err := b.parseTerm()
		if err != nil {
			return err
		}
		predNode, ok := pred.(rdf.NamedNode)
		if !ok {
			return b.s.errorf("predicate must be an IRI")
		}

		if err := b.parseObjectList(subject, predNode); err != nil {
			return err
		}

		b.s.skipWSAndComments()
		if !b.s.matchByte(';') {
			return nil
		}
		b.s.skipWSAndComments()
		// Trailing ';' with no further predicate is legal.
		if ch, ok := b.s.peek(); ok && (ch == '.' || ch == ']' || ch == '}') {
			return nil
		}
	}
}

func (b *base) parseObjectList(subject rdf.Term, pred rdf.NamedNode) error {
	for {
		b.s.skipWSAndComments()
		obj, err := b.parseTerm()
		if err != nil {
			return err
		}
		b.addTriple(subject, pred, obj)

		b.s.skipWSAndComments()
		if !b.s.matchByte(',') {
			return nil
		}
	}
}

// parseBlankNodePropertyList parses "[ predicateObjectList? ]",
// returning a fresh blank node as the subject/object term.
func (b *base) parseBlankNodePropertyList() (rdf.Term, error) {
	if !b.s.matchByte('[') {
		return nil, b.s.errorf("expected '['")
	}
	node := b.bnodes.fresh()

	b.s.skipWSAndComments()
	if b.s.matchByte(']') {
		return node, nil
	}
	if err := b.parsePredicateObjectList(node); err != nil {
		return nil, err
	}
	b.s.skipWSAndComments()
	if !b.s.matchByte(']') {
		if b.s.needMore() {
			return nil, ErrNeedMoreInput
		}
		return nil, b.s.errorf("expected ']'")
	}
	return node, nil
}

// parseCollection parses "( object* )" as an rdf:first/rdf:rest list,
// returning rdf:nil for an empty collection.
func (b *base) parseCollection() (rdf.Term, error) {
	if !b.s.matchByte('(') {
		return nil, b.s.errorf("expected '('")
	}
	b.s.skipWSAndComments()
	if b.s.matchByte(')') {
		return rdf.RDFNil, nil
	}

	var head rdf.Term
	var prev rdf.BlankNode
	first := true
	for {
		b.s.skipWSAndComments()
		if ch, ok := b.s.peek(); ok && ch == ')' {
			b.s.advance()
			break
		}
		item, err := b.parseTerm()
		if err != nil {
			return nil, err
		}
		node := b.bnodes.fresh()
		if first {
			head = node
			first = false
		} else {
			b.addTriple(prev, rdf.RDFRest, node)
		}
		b.addTriple(node, rdf.RDFFirst, item)
		prev = node
	}
	if head == nil {
		return rdf.RDFNil, nil
	}
	b.addTriple(prev, rdf.RDFRest, rdf.RDFNil)
	return head, nil
}

// tryParseQuotedTriple attempts the RDF-star "<< s p o >>" production.
// ok is false (with no error) if the input doesn't actually start a
// quoted triple, so the caller can fall through to the ordinary IRIREF
// production for a plain "<iri>".
func (b *base) tryParseQuotedTriple() (rdf.Term, bool, error) {
	if !b.s.matchLiteral("<<") {
		return nil, false, nil
	}
	b.s.skipWSAndComments()
	s, err := b.parseTerm()
	if err != nil {
		return nil, true, err
	}
	b.s.skipWSAndComments()
	p, err := b.parseTerm()
	if err != nil {
		return nil, true, err
	}
	b.s.skipWSAndComments()
	o, err := b.parseTerm()
	if err != nil {
		return nil, true, err
	}
	b.s.skipWSAndComments()
	if !b.s.matchLiteral(">>") {
		if b.s.needMore() {
			return nil, true, ErrNeedMoreInput
		}
		return nil, true, b.s.errorf("expected '>>' to close quoted triple")
	}
	qt, err := rdf.NewQuotedTriple(s, p, o)
	if err != nil {
		return nil, true, b.s.errorf("%s", err)
	}
	return qt, true, nil
}
