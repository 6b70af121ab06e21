package serialize

import (
	"strings"
	"testing"

	"github.com/trigonrdf/trigon/rdf"
)

func TestWriteNTriples(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, FormatNTriples)
	q := rdf.NewTriple(rdf.NewNamedNode("http://example.org/s"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("hi"))
	if err := w.WriteQuad(q); err != nil {
		t.Fatalf("WriteQuad: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := "<http://example.org/s> <http://example.org/p> \"hi\" .\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteNQuadsWithNamedGraph(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, FormatNQuads)
	q := rdf.NewQuad(rdf.NewNamedNode("http://example.org/s"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("hi"), rdf.NewNamedNode("http://example.org/g"))
	if err := w.WriteQuad(q); err != nil {
		t.Fatalf("WriteQuad: %v", err)
	}
	w.Close()
	want := "<http://example.org/s> <http://example.org/p> \"hi\" <http://example.org/g> .\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTurtlePredicateObjectListShortcuts(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, FormatTurtle)
	if err := w.WritePrefix("ex", "http://example.org/"); err != nil {
		t.Fatalf("WritePrefix: %v", err)
	}
	s := rdf.NewNamedNode("http://example.org/s")
	if err := w.WriteQuad(rdf.NewTriple(s, rdf.RDFType, rdf.NewNamedNode("http://example.org/Thing"))); err != nil {
		t.Fatalf("WriteQuad 1: %v", err)
	}
	if err := w.WriteQuad(rdf.NewTriple(s, rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("a"))); err != nil {
		t.Fatalf("WriteQuad 2: %v", err)
	}
	if err := w.WriteQuad(rdf.NewTriple(s, rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("b"))); err != nil {
		t.Fatalf("WriteQuad 3: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ex:s a ex:Thing") {
		t.Errorf("expected rdf:type shortcut and prefix compression, got %q", out)
	}
	if !strings.Contains(out, "\"a\" , \"b\"") {
		t.Errorf("expected object-list comma shortcut, got %q", out)
	}
}

func TestTurtleCanonicalShortForms(t *testing.T) {
	s := rdf.NewNamedNode("http://example.org/s")
	p := rdf.NewNamedNode("http://example.org/p")
	cases := []struct {
		name string
		lit  rdf.Literal
		want string
	}{
		{"boolean", rdf.NewTypedLiteral("true", rdf.XSDBoolean), "true"},
		{"integer", rdf.NewTypedLiteral("42", rdf.XSDInteger), "42"},
		{"decimal", rdf.NewTypedLiteral("1.5", rdf.XSDDecimal), "1.5"},
		{"double", rdf.NewTypedLiteral("1e10", rdf.XSDDouble), "1e10"},
		{"non-canonical integer", rdf.NewTypedLiteral("1.0", rdf.XSDInteger), "\"1.0\"^^<http://www.w3.org/2001/XMLSchema#integer>"},
		{"non-canonical boolean", rdf.NewTypedLiteral("1", rdf.XSDBoolean), "\"1\"^^<http://www.w3.org/2001/XMLSchema#boolean>"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf strings.Builder
			w := NewWriter(&buf, FormatTurtle)
			if err := w.WriteQuad(rdf.NewTriple(s, p, c.lit)); err != nil {
				t.Fatalf("WriteQuad: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if !strings.Contains(buf.String(), c.want) {
				t.Errorf("got %q, want substring %q", buf.String(), c.want)
			}
		})
	}
}

func TestTriGGraphBlocks(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, FormatTriG)
	w.WritePrefix("ex", "http://example.org/")
	g := rdf.NewNamedNode("http://example.org/g1")
	s := rdf.NewNamedNode("http://example.org/s")
	p := rdf.NewNamedNode("http://example.org/p")
	if err := w.WriteQuad(rdf.NewQuad(s, p, rdf.NewLiteral("x"), g)); err != nil {
		t.Fatalf("WriteQuad: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ex:g1 {") || !strings.Contains(out, "}") {
		t.Errorf("expected a named graph block, got %q", out)
	}
}
