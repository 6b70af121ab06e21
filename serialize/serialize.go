// Package serialize writes quads back out in N-Triples, N-Quads, Turtle,
// or TriG syntax. Writers are incremental: each call to WriteQuad emits
// only the syntax needed for that one quad given what was written
// immediately before it, tracking the current graph/subject/predicate so
// consecutive quads sharing a graph, subject, or predicate reuse Turtle's
// ';' and ',' shortcuts instead of repeating terms.
//
// Grounded on rdf.Quad/rdf.Term's own String() methods (pkg/rdf/term.go)
// for literal/IRI escaping and canonical numeric forms, generalized from
// "format one term in isolation" to "format a stream of quads sharing
// structure".
package serialize

import (
	"bufio"
	"io"

	"github.com/trigonrdf/trigon/rdf"
)

// Format identifies which RDF serialization a Writer emits.
type Format int

const (
	FormatNTriples Format = iota
	FormatNQuads
	FormatTurtle
	FormatTriG
)

// Writer incrementally serializes quads. It is not safe for concurrent
// use. Callers must call Close to flush the final statement terminator
// and any buffered output.
type Writer struct {
	w        *bufio.Writer
	format   Format
	prefixes map[string]string // declared via WritePrefix; when several match an IRI, which one is used is not defined

	curGraph  rdf.Term
	curSubj   rdf.Term
	curPred   rdf.Term
	haveGraph bool
	inBlock   bool // TriG: currently inside a "graph { }" block
	started   bool
}

// NewWriter constructs a Writer for the given format, writing to w.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: bufio.NewWriter(w), format: format, prefixes: make(map[string]string)}
}

// WritePrefix declares a prefix for Turtle/TriG output. It must be
// called before the first WriteQuad call; it's a no-op for N-Triples/
// N-Quads, which have no prefix syntax.
func (wr *Writer) WritePrefix(name, iri string) error {
	if wr.started {
		return errAlreadyStarted
	}
	if wr.format != FormatTurtle && wr.format != FormatTriG {
		return nil
	}
	wr.prefixes[name] = iri
	if _, err := wr.w.WriteString("@prefix " + name + ": <" + iri + "> .\n"); err != nil {
		return err
	}
	return nil
}

var errAlreadyStarted = writerError("serialize: WritePrefix called after WriteQuad")

type writerError string

func (e writerError) Error() string { return string(e) }

// WriteQuad emits one quad, reusing Turtle/TriG's subject/predicate-list
// shortcuts when consecutive quads share structure with the previous one.
func (wr *Writer) WriteQuad(q rdf.Quad) error {
	wr.started = true
	switch wr.format {
	case FormatNTriples:
		return wr.writeNTriple(q)
	case FormatNQuads:
		return wr.writeNQuad(q)
	case FormatTurtle:
		return wr.writeTurtleQuad(q)
	case FormatTriG:
		return wr.writeTriGQuad(q)
	default:
		return writerError("serialize: unknown format")
	}
}

// Close flushes buffered output and, for Turtle/TriG, closes any open
// statement and graph block.
func (wr *Writer) Close() error {
	switch wr.format {
	case FormatTurtle:
		if wr.curSubj != nil {
			if _, err := wr.w.WriteString(" .\n"); err != nil {
				return err
			}
		}
	case FormatTriG:
		if wr.curSubj != nil {
			if _, err := wr.w.WriteString(" .\n"); err != nil {
				return err
			}
		}
		if wr.inBlock {
			if _, err := wr.w.WriteString("}\n"); err != nil {
				return err
			}
		}
	}
	return wr.w.Flush()
}

func (wr *Writer) writeNTriple(q rdf.Quad) error {
	_, err := wr.w.WriteString(termString(q.Subject) + " " + termString(q.Predicate) + " " + termString(q.Object) + " .\n")
	return err
}

func (wr *Writer) writeNQuad(q rdf.Quad) error {
	if _, ok := q.Graph.(rdf.DefaultGraph); ok {
		return wr.writeNTriple(q)
	}
	_, err := wr.w.WriteString(termString(q.Subject) + " " + termString(q.Predicate) + " " + termString(q.Object) + " " + termString(q.Graph) + " .\n")
	return err
}

// writeTurtleQuad emits one triple, ignoring q.Graph (Turtle has no
// named-graph syntax); the caller is responsible for only ever passing
// default-graph quads to a Turtle Writer.
func (wr *Writer) writeTurtleQuad(q rdf.Quad) error {
	return wr.writeTripleBody(q.Subject, q.Predicate, q.Object)
}

func (wr *Writer) writeTriGQuad(q rdf.Quad) error {
	graph := q.Graph
	if !sameTerm(graph, wr.curGraph) || !wr.haveGraph {
		if wr.curSubj != nil {
			if _, err := wr.w.WriteString(" .\n"); err != nil {
				return err
			}
			wr.curSubj, wr.curPred = nil, nil
		}
		if wr.inBlock {
			if _, err := wr.w.WriteString("}\n"); err != nil {
				return err
			}
			wr.inBlock = false
		}
		if _, ok := graph.(rdf.DefaultGraph); !ok {
			if _, err := wr.w.WriteString(wr.compress(graph) + " {\n"); err != nil {
				return err
			}
			wr.inBlock = true
		}
		wr.curGraph = graph
		wr.haveGraph = true
	}
	return wr.writeTripleBody(q.Subject, q.Predicate, q.Object)
}

// writeTripleBody emits subject/predicate/object, reusing ';' when the
// subject matches the previous triple and ',' when both subject and
// predicate match.
func (wr *Writer) writeTripleBody(s, p, o rdf.Term) error {
	switch {
	case sameTerm(s, wr.curSubj) && sameTerm(p, wr.curPred):
		if _, err := wr.w.WriteString(" , " + wr.compress(o)); err != nil {
			return err
		}
	case sameTerm(s, wr.curSubj):
		if _, err := wr.w.WriteString(" ;\n    " + wr.predicateString(p) + " " + wr.compress(o)); err != nil {
			return err
		}
	default:
		if wr.curSubj != nil {
			if _, err := wr.w.WriteString(" .\n"); err != nil {
				return err
			}
		}
		if _, err := wr.w.WriteString(wr.compress(s) + " " + wr.predicateString(p) + " " + wr.compress(o)); err != nil {
			return err
		}
	}
	wr.curSubj, wr.curPred = s, p
	return nil
}

func (wr *Writer) predicateString(p rdf.Term) string {
	if p.Equal(rdf.RDFType) {
		return "a"
	}
	return wr.compress(p)
}

// compress renders a term using a declared prefix when possible, a bare
// canonical numeric/boolean short form for a literal whose lexical form
// matches one exactly, or falls back to the full <iri> or N-Triples-
// style literal form.
func (wr *Writer) compress(t rdf.Term) string {
	if lit, ok := t.(rdf.Literal); ok {
		if form, ok := canonicalShortForm(lit); ok {
			return form
		}
		return termString(t)
	}
	nn, ok := t.(rdf.NamedNode)
	if !ok {
		return termString(t)
	}
	for name, ns := range wr.prefixes {
		if len(nn.IRI) > len(ns) && nn.IRI[:len(ns)] == ns {
			local := nn.IRI[len(ns):]
			if isSimplePNLocal(local) {
				return name + ":" + local
			}
		}
	}
	return termString(t)
}

// canonicalShortForm reports whether lit's lexical form matches the
// Turtle grammar's canonical token for its datatype exactly, in which
// case the writer may emit the bare token (true, 42, 1.5, 1e10) instead
// of a quoted, ^^-suffixed literal. Mirrors the numeric-literal scanner
// in parse/terms.go, run over an already-parsed lexical form instead of
// the input stream, so read and write agree on what "canonical" means.
func canonicalShortForm(lit rdf.Literal) (string, bool) {
	switch {
	case lit.Datatype.Equal(rdf.XSDBoolean):
		if lit.Value == "true" || lit.Value == "false" {
			return lit.Value, true
		}
	case lit.Datatype.Equal(rdf.XSDInteger):
		if isCanonicalInteger(lit.Value) {
			return lit.Value, true
		}
	case lit.Datatype.Equal(rdf.XSDDecimal):
		if isCanonicalDecimal(lit.Value) {
			return lit.Value, true
		}
	case lit.Datatype.Equal(rdf.XSDDouble):
		if isCanonicalDouble(lit.Value) {
			return lit.Value, true
		}
	}
	return "", false
}

// isCanonicalInteger matches Turtle's INTEGER token: [+-]? [0-9]+.
func isCanonicalInteger(s string) bool {
	i := signLen(s)
	return i < len(s) && allDigits(s[i:])
}

// isCanonicalDecimal matches Turtle's DECIMAL token: [+-]? [0-9]* '.' [0-9]+.
func isCanonicalDecimal(s string) bool {
	i := signLen(s)
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i >= len(s) || s[i] != '.' {
		return false
	}
	i++
	fracStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i == len(s) && i > fracStart
}

// isCanonicalDouble matches Turtle's DOUBLE token:
// [+-]? ([0-9]+ '.' [0-9]* | '.' [0-9]+ | [0-9]+) [eE] [+-]? [0-9]+.
func isCanonicalDouble(s string) bool {
	i := signLen(s)
	sawDigit := false
	for i < len(s) && isDigit(s[i]) {
		i++
		sawDigit = true
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			sawDigit = true
		}
	}
	if !sawDigit {
		return false
	}
	if i >= len(s) || (s[i] != 'e' && s[i] != 'E') {
		return false
	}
	i++
	i += signLen(s[i:])
	expStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i == len(s) && i > expStart
}

func signLen(s string) int {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isSimplePNLocal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		ok := (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !ok {
			return false
		}
	}
	return true
}

func sameTerm(a, b rdf.Term) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equal(b)
}

// termString renders any term in N-Triples/N-Quads syntax: this is the
// same format rdf.Term.String already produces, reused here rather than
// duplicated.
func termString(t rdf.Term) string {
	return t.String()
}
