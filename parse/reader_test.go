package parse

import (
	"errors"
	"io"
	"testing"

	"github.com/trigonrdf/trigon/rdf"
)

func mustNamedNode(t *testing.T, iri string) rdf.NamedNode {
	t.Helper()
	return rdf.NewNamedNode(iri)
}

func TestNTriplesRoundTrip(t *testing.T) {
	doc := []byte(`<http://example.org/s> <http://example.org/p> "hello" .
<http://example.org/s> <http://example.org/p2> _:b1 .
_:b1 <http://example.org/p3> <http://example.org/o> .
`)
	quads, err := ReadAll(FormatNTriples, BlankNodePreserve, doc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(quads) != 3 {
		t.Fatalf("got %d quads, want 3", len(quads))
	}
	if quads[0].Subject != mustNamedNode(t, "http://example.org/s") {
		t.Errorf("unexpected subject: %v", quads[0].Subject)
	}
	if _, ok := quads[0].Graph.(rdf.DefaultGraph); !ok {
		t.Errorf("expected default graph, got %T", quads[0].Graph)
	}
}

func TestNQuadsRoundTripWithGraph(t *testing.T) {
	doc := []byte(`<http://example.org/s> <http://example.org/p> "x" <http://example.org/g> .
<http://example.org/s> <http://example.org/p> "y" .
`)
	quads, err := ReadAll(FormatNQuads, BlankNodePreserve, doc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(quads) != 2 {
		t.Fatalf("got %d quads, want 2", len(quads))
	}
	if nn, ok := quads[0].Graph.(rdf.NamedNode); !ok || nn.IRI != "http://example.org/g" {
		t.Errorf("unexpected graph: %v", quads[0].Graph)
	}
	if _, ok := quads[1].Graph.(rdf.DefaultGraph); !ok {
		t.Errorf("expected default graph for second quad, got %T", quads[1].Graph)
	}
}

func TestTurtlePrefixAndCollection(t *testing.T) {
	doc := []byte(`@prefix ex: <http://example.org/> .
ex:s a ex:Thing ;
     ex:list ( 1 2 3 ) .
`)
	quads, err := ReadAll(FormatTurtle, BlankNodePreserve, doc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// 1 type triple + (3 rdf:first + 3 rdf:rest) for the collection + 1 ex:list triple
	if len(quads) != 8 {
		t.Fatalf("got %d quads, want 8: %v", len(quads), quads)
	}
	if quads[0].Predicate != rdf.RDFType {
		t.Errorf("expected rdf:type shortcut, got %v", quads[0].Predicate)
	}
}

func TestTriGGraphBlock(t *testing.T) {
	doc := []byte(`@prefix ex: <http://example.org/> .
ex:default ex:p ex:o .
ex:g1 {
    ex:s1 ex:p1 ex:o1 .
    ex:s2 ex:p2 ex:o2 .
}
`)
	quads, err := ReadAll(FormatTriG, BlankNodePreserve, doc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(quads) != 3 {
		t.Fatalf("got %d quads, want 3: %v", len(quads), quads)
	}
	if _, ok := quads[0].Graph.(rdf.DefaultGraph); !ok {
		t.Errorf("expected default graph for first triple, got %T", quads[0].Graph)
	}
	for _, q := range quads[1:] {
		if nn, ok := q.Graph.(rdf.NamedNode); !ok || nn.IRI != "http://example.org/g1" {
			t.Errorf("expected graph ex:g1, got %v", q.Graph)
		}
	}
}

func TestByteAtATimeSuspendsThenResumes(t *testing.T) {
	doc := []byte(`<http://example.org/s> <http://example.org/p> "hello" .` + "\n")
	r := NewReader(FormatNTriples, BlankNodePreserve)

	var quads []rdf.Quad
	for i := range doc {
		if _, err := r.Write(doc[i : i+1]); err != nil {
			t.Fatalf("Write: %v", err)
		}
		for {
			q, err := r.ReadQuad()
			if errors.Is(err, ErrNeedMoreInput) {
				break
			}
			if err != nil {
				t.Fatalf("ReadQuad: %v", err)
			}
			quads = append(quads, q)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	q, err := r.ReadQuad()
	if err == io.EOF {
		// fine: the statement may have already been fully drained above.
	} else if err != nil {
		t.Fatalf("ReadQuad after close: %v", err)
	} else {
		quads = append(quads, q)
	}

	if len(quads) != 1 {
		t.Fatalf("got %d quads, want 1", len(quads))
	}
}

func TestTruncatedDocumentIsSyntaxErrorAfterClose(t *testing.T) {
	doc := []byte(`<http://example.org/s> <http://example.org/p> "hello"`)
	r := NewReader(FormatNTriples, BlankNodePreserve)
	if _, err := r.Write(doc); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := r.ReadQuad(); !errors.Is(err, ErrNeedMoreInput) {
		t.Fatalf("expected ErrNeedMoreInput before Close, got %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := r.ReadQuad()
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError after Close on truncated input, got %v", err)
	}
}

func TestBlankNodeRenamePolicyIsPerReaderUnique(t *testing.T) {
	doc := []byte(`_:a <http://example.org/p> _:a .
`)
	quads, err := ReadAll(FormatNTriples, BlankNodeRename, doc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("got %d quads, want 1", len(quads))
	}
	if quads[0].Subject != quads[0].Object {
		t.Errorf("same source label _:a must rename to the same blank node within one document")
	}
}
