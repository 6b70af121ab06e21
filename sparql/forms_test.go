package sparql_test

import (
	"context"
	"testing"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/sparql"
)

func parseAndExecute(t *testing.T, ds sparql.QueryableDataset, query string) sparql.Result {
	t.Helper()
	q, err := sparql.Parse(query)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := sparql.Execute(context.Background(), q, ds, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return res
}

func TestAskTrueFalse(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"knows"), iri(ex+"bob")),
	)
	res := parseAndExecute(t, ds, `PREFIX ex: <`+ex+`> ASK { ex:alice ex:knows ex:bob }`)
	if !res.Boolean {
		t.Fatalf("expected ASK to be true")
	}
	res = parseAndExecute(t, ds, `PREFIX ex: <`+ex+`> ASK { ex:alice ex:knows ex:carol }`)
	if res.Boolean {
		t.Fatalf("expected ASK to be false")
	}
}

func TestConstructTemplate(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"knows"), iri(ex+"bob")),
	)
	res := parseAndExecute(t, ds, `
		PREFIX ex: <`+ex+`>
		CONSTRUCT { ?s ex:related ?o } WHERE { ?s ex:knows ?o }`)
	if len(res.Quads) != 1 {
		t.Fatalf("expected 1 quad, got %d: %v", len(res.Quads), res.Quads)
	}
	if !res.Quads[0].Predicate.Equal(iri(ex + "related")) {
		t.Fatalf("unexpected predicate: %v", res.Quads[0].Predicate)
	}
}

func TestConstructBlankNodeScopePerRow(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"age"), rdfLitInt(30)),
		rdfTriple(iri(ex+"bob"), iri(ex+"age"), rdfLitInt(40)),
	)
	res := parseAndExecute(t, ds, `
		PREFIX ex: <`+ex+`>
		CONSTRUCT { _:b ex:hasAge ?age } WHERE { ?p ex:age ?age }`)
	if len(res.Quads) != 2 {
		t.Fatalf("expected 2 quads, got %d", len(res.Quads))
	}
	s1, ok1 := res.Quads[0].Subject.(rdf.BlankNode)
	s2, ok2 := res.Quads[1].Subject.(rdf.BlankNode)
	if !ok1 || !ok2 {
		t.Fatalf("expected blank node subjects")
	}
	if s1.Equal(s2) {
		t.Fatalf("expected distinct blank node scope per solution row, got same: %v", s1)
	}
}

func TestDescribeFixedResource(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"name"), rdfLitStr("Alice")),
		rdfTriple(iri(ex+"alice"), iri(ex+"knows"), iri(ex+"bob")),
		rdfTriple(iri(ex+"bob"), iri(ex+"name"), rdfLitStr("Bob")),
	)
	res := parseAndExecute(t, ds, `PREFIX ex: <`+ex+`> DESCRIBE ex:alice`)
	if len(res.Quads) != 2 {
		t.Fatalf("expected 2 quads describing ex:alice, got %d: %v", len(res.Quads), res.Quads)
	}
	for _, q := range res.Quads {
		if !q.Subject.Equal(iri(ex + "alice")) {
			t.Fatalf("unexpected subject in DESCRIBE result: %v", q.Subject)
		}
	}
}
