package sparql_test

import "testing"

func TestSelectBasicGraphPattern(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"knows"), iri(ex+"bob")),
		rdfTriple(iri(ex+"bob"), iri(ex+"knows"), iri(ex+"carol")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?s ?o WHERE { ?s ex:knows ?o }`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
}

func TestSelectAllUnboundTriple(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"knows"), iri(ex+"bob")),
	)
	rows := runSelect(t, ds, `SELECT * WHERE { ?s ?p ?o }`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["s"].String() != iri(ex+"alice").String() {
		t.Fatalf("unexpected subject: %v", rows[0]["s"])
	}
}

func TestSelectVariablePredicate(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"age"), rdfLitStr("30")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?p ?o WHERE { ex:alice ?p ?o }`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["p"].String() != iri(ex+"age").String() {
		t.Fatalf("unexpected predicate: %v", rows[0]["p"])
	}
}

func TestSelectOptional(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"name"), rdfLitStr("Alice")),
		rdfTriple(iri(ex+"bob"), iri(ex+"name"), rdfLitStr("Bob")),
		rdfTriple(iri(ex+"alice"), iri(ex+"email"), rdfLitStr("alice@example.org")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?name ?email WHERE {
			?p ex:name ?name .
			OPTIONAL { ?p ex:email ?email }
		}`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	var sawBoundEmail, sawUnboundEmail bool
	for _, r := range rows {
		if _, ok := r["email"]; ok {
			sawBoundEmail = true
		} else {
			sawUnboundEmail = true
		}
	}
	if !sawBoundEmail || !sawUnboundEmail {
		t.Fatalf("expected one row with email bound and one without: %v", rows)
	}
}

func TestSelectUnion(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"name"), rdfLitStr("Alice")),
		rdfTriple(iri(ex+"bob"), iri(ex+"nick"), rdfLitStr("Bobby")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?n WHERE {
			{ ?p ex:name ?n } UNION { ?p ex:nick ?n }
		}`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
}

func TestSelectMinus(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"type"), iri(ex+"Person")),
		rdfTriple(iri(ex+"bob"), iri(ex+"type"), iri(ex+"Person")),
		rdfTriple(iri(ex+"bob"), iri(ex+"banned"), rdfLitBool(true)),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?p WHERE {
			?p ex:type ex:Person .
			MINUS { ?p ex:banned true }
		}`)
	if len(rows) != 1 || rows[0]["p"].String() != iri(ex+"alice").String() {
		t.Fatalf("expected only alice, got %v", rows)
	}
}

func TestSelectBindAndFilter(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"age"), rdfLitInt(30)),
		rdfTriple(iri(ex+"bob"), iri(ex+"age"), rdfLitInt(15)),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?p ?isAdult WHERE {
			?p ex:age ?age .
			BIND(?age >= 18 AS ?isAdult)
			FILTER(?isAdult)
		}`)
	if len(rows) != 1 || rows[0]["p"].String() != iri(ex+"alice").String() {
		t.Fatalf("expected only alice, got %v", rows)
	}
}

func TestSelectValues(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"age"), rdfLitInt(30)),
		rdfTriple(iri(ex+"bob"), iri(ex+"age"), rdfLitInt(40)),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?p ?age WHERE {
			?p ex:age ?age .
			VALUES ?age { 30 }
		}`)
	if len(rows) != 1 || rows[0]["p"].String() != iri(ex+"alice").String() {
		t.Fatalf("expected only alice, got %v", rows)
	}
}

func TestSelectDistinct(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"type"), iri(ex+"Person")),
		rdfTriple(iri(ex+"bob"), iri(ex+"type"), iri(ex+"Person")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT DISTINCT ?t WHERE { ?p ex:type ?t }`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 distinct row, got %d: %v", len(rows), rows)
	}
}

func TestSelectOrderByLimitOffset(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"a"), iri(ex+"rank"), rdfLitInt(3)),
		rdfTriple(iri(ex+"b"), iri(ex+"rank"), rdfLitInt(1)),
		rdfTriple(iri(ex+"c"), iri(ex+"rank"), rdfLitInt(2)),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?p ?rank WHERE { ?p ex:rank ?rank }
		ORDER BY ?rank
		LIMIT 2 OFFSET 1`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0]["p"].String() != iri(ex+"c").String() {
		t.Fatalf("expected first row to be ex:c (rank 2), got %v", rows[0]["p"])
	}
}
