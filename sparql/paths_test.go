package sparql_test

import "testing"

func TestPropertyPathSequence(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"parent"), iri(ex+"bob")),
		rdfTriple(iri(ex+"bob"), iri(ex+"parent"), iri(ex+"carol")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?g WHERE { ex:alice ex:parent/ex:parent ?g }`)
	if len(rows) != 1 || rows[0]["g"].String() != iri(ex+"carol").String() {
		t.Fatalf("expected ex:carol, got %v", rows)
	}
}

func TestPropertyPathPlus(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"parent"), iri(ex+"bob")),
		rdfTriple(iri(ex+"bob"), iri(ex+"parent"), iri(ex+"carol")),
		rdfTriple(iri(ex+"carol"), iri(ex+"parent"), iri(ex+"dave")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?d WHERE { ex:alice ex:parent+ ?d }`)
	if len(rows) != 3 {
		t.Fatalf("expected 3 transitive descendants, got %d: %v", len(rows), rows)
	}
}

func TestPropertyPathStarIncludesSelf(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"parent"), iri(ex+"bob")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?d WHERE { ex:alice ex:parent* ?d }`)
	if len(rows) != 2 {
		t.Fatalf("expected self + 1 descendant, got %d: %v", len(rows), rows)
	}
}

func TestPropertyPathInverse(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"parent"), iri(ex+"bob")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?c WHERE { ex:bob ^ex:parent ?c }`)
	if len(rows) != 1 || rows[0]["c"].String() != iri(ex+"alice").String() {
		t.Fatalf("expected ex:alice, got %v", rows)
	}
}

func TestPropertyPathAlternative(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"mother"), iri(ex+"jane")),
		rdfTriple(iri(ex+"bob"), iri(ex+"father"), iri(ex+"mike")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?p ?par WHERE { ?p ex:mother|ex:father ?par }`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
}

func TestPropertyPathNegatedSet(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"mother"), iri(ex+"jane")),
		rdfTriple(iri(ex+"alice"), iri(ex+"banned"), rdfLitBool(true)),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?o WHERE { ex:alice !(ex:banned) ?o }`)
	if len(rows) != 1 || rows[0]["o"].String() != iri(ex+"jane").String() {
		t.Fatalf("expected only ex:mother's object, got %v", rows)
	}
}
