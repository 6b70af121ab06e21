// Package rdf defines the in-memory RDF term and quad model: named nodes,
// blank nodes, literals, the default-graph marker, and (behind a feature
// flag) embedded triples.
package rdf

import (
	"fmt"
	"strings"
)

// TermType identifies the closed set of term kinds the codec and the
// expression evaluator exhaustively switch over. Adding a kind here is an
// intentional breaking change to every switch in the module.
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeDefaultGraph
	TermTypeQuotedTriple
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "NamedNode"
	case TermTypeBlankNode:
		return "BlankNode"
	case TermTypeLiteral:
		return "Literal"
	case TermTypeDefaultGraph:
		return "DefaultGraph"
	case TermTypeQuotedTriple:
		return "QuotedTriple"
	default:
		return fmt.Sprintf("TermType(%d)", byte(t))
	}
}

// Term is any RDF value: a named node, a blank node, a literal, the
// default-graph marker, or (with the quoted-triples feature enabled) an
// embedded triple used as a subject or object.
//
// Terms are immutable once constructed; two terms that compare Equal
// produce byte-identical codec encodings (codec.Encode is a pure function
// of a term's lexical contents).
type Term interface {
	Type() TermType
	String() string
	Equal(other Term) bool
}

// NamedNode is an absolute IRI.
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) NamedNode { return NamedNode{IRI: iri} }

func (n NamedNode) Type() TermType { return TermTypeNamedNode }
func (n NamedNode) String() string { return "<" + n.IRI + ">" }
func (n NamedNode) Equal(other Term) bool {
	o, ok := other.(NamedNode)
	return ok && n.IRI == o.IRI
}

// BlankNode is an opaque, document-locally-scoped identifier. Two blank
// nodes are equal iff they share both identifier and scope; scope is
// represented by identity of the owning document/renaming pass, which
// callers enforce by minting distinct labels (see parse.BlankNodePolicy).
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) BlankNode { return BlankNode{ID: id} }

func (b BlankNode) Type() TermType { return TermTypeBlankNode }
func (b BlankNode) String() string { return "_:" + b.ID }
func (b BlankNode) Equal(other Term) bool {
	o, ok := other.(BlankNode)
	return ok && b.ID == o.ID
}

// Literal is a lexical string paired with exactly one of a datatype IRI or
// a language tag. A bare string literal has datatype xsd:string; a
// language-tagged literal has datatype rdf:langString and its Language is
// always lowercased on construction, per the canonical-literal invariant.
type Literal struct {
	Value    string
	Language string
	Datatype NamedNode
}

// NewLiteral builds a plain xsd:string literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value, Datatype: XSDString}
}

// NewLangLiteral builds an rdf:langString literal. The language tag is
// lowercased so that construction is canonical: two calls differing only
// in tag case produce equal literals.
func NewLangLiteral(value, lang string) Literal {
	return Literal{Value: value, Language: strings.ToLower(lang), Datatype: RDFLangString}
}

// NewTypedLiteral builds a literal with an explicit datatype. Passing
// xsd:string is equivalent to NewLiteral.
func NewTypedLiteral(value string, datatype NamedNode) Literal {
	return Literal{Value: value, Datatype: datatype}
}

func (l Literal) Type() TermType { return TermTypeLiteral }

func (l Literal) String() string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(escapeLiteral(l.Value))
	b.WriteByte('"')
	switch {
	case l.Language != "":
		b.WriteByte('@')
		b.WriteString(l.Language)
	case l.Datatype.IRI != "" && l.Datatype.IRI != XSDString.IRI:
		b.WriteString("^^")
		b.WriteString(l.Datatype.String())
	}
	return b.String()
}

func (l Literal) Equal(other Term) bool {
	o, ok := other.(Literal)
	return ok && l.Value == o.Value && l.Language == o.Language && l.Datatype.Equal(o.Datatype)
}

var literalEscaper = strings.NewReplacer(
	"\\", `\\`,
	"\"", `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string { return literalEscaper.Replace(s) }

// DefaultGraph is the distinguished value used only in the graph-name
// position to mark the unnamed graph.
type DefaultGraph struct{}

func NewDefaultGraph() DefaultGraph { return DefaultGraph{} }

func (d DefaultGraph) Type() TermType { return TermTypeDefaultGraph }
func (d DefaultGraph) String() string { return "DEFAULT" }
func (d DefaultGraph) Equal(other Term) bool {
	_, ok := other.(DefaultGraph)
	return ok
}

// QuotedTriple is an RDF-star / RDF 1.2 embedded triple, usable as a
// subject or object term when the quoted-triples feature is enabled
// (codec.AllowQuoted). Embedded triples are trees, not graphs: a triple
// can never contain itself, so recursive encode/decode always terminates.
type QuotedTriple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewQuotedTriple validates the RDF-star positional restriction: the
// subject may be a named node, blank node, or another quoted triple; the
// predicate must be a named node; the object may be any term. Quoted
// triples are never permitted in predicate position, in any format --
// this is deliberate (see spec Open Questions) and is enforced here, not
// just at the parser.
func NewQuotedTriple(s, p, o Term) (QuotedTriple, error) {
	switch s.(type) {
	case NamedNode, BlankNode, QuotedTriple:
	default:
		return QuotedTriple{}, fmt.Errorf("rdf: quoted triple subject must be an IRI, blank node, or quoted triple, got %s", s.Type())
	}
	if _, ok := p.(NamedNode); !ok {
		return QuotedTriple{}, fmt.Errorf("rdf: quoted triple predicate must be an IRI, got %s", p.Type())
	}
	if o == nil {
		return QuotedTriple{}, fmt.Errorf("rdf: quoted triple object must not be nil")
	}
	return QuotedTriple{Subject: s, Predicate: p, Object: o}, nil
}

func (q QuotedTriple) Type() TermType { return TermTypeQuotedTriple }

func (q QuotedTriple) String() string {
	return fmt.Sprintf("<< %s %s %s >>", q.Subject, q.Predicate, q.Object)
}

func (q QuotedTriple) Equal(other Term) bool {
	o, ok := other.(QuotedTriple)
	return ok && q.Subject.Equal(o.Subject) && q.Predicate.Equal(o.Predicate) && q.Object.Equal(o.Object)
}

// Quad is an ordered (subject, predicate, object, graph) tuple. Subject is
// a named node, blank node, or quoted triple. Predicate is always a named
// node. Object is any term except DefaultGraph. Graph is a named node,
// blank node, or DefaultGraph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// NewQuad builds a quad, defaulting a nil graph to the default graph.
func NewQuad(s, p, o, g Term) Quad {
	if g == nil {
		g = DefaultGraph{}
	}
	return Quad{Subject: s, Predicate: p, Object: o, Graph: g}
}

// NewTriple builds a quad in the default graph.
func NewTriple(s, p, o Term) Quad {
	return Quad{Subject: s, Predicate: p, Object: o, Graph: DefaultGraph{}}
}

func (q Quad) String() string {
	if _, ok := q.Graph.(DefaultGraph); ok {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Equal reports whether two quads have pairwise-equal terms.
func (q Quad) Equal(o Quad) bool {
	return q.Subject.Equal(o.Subject) && q.Predicate.Equal(o.Predicate) &&
		q.Object.Equal(o.Object) && q.Graph.Equal(o.Graph)
}

// IsValid reports whether a quad has the minimum required terms set.
func (q Quad) IsValid() bool {
	return q.Subject != nil && q.Predicate != nil && q.Object != nil && q.Graph != nil
}
