package sparql_test

import "testing"

func TestAggregateCountGroupBy(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"dept"), iri(ex+"eng")),
		rdfTriple(iri(ex+"bob"), iri(ex+"dept"), iri(ex+"eng")),
		rdfTriple(iri(ex+"carol"), iri(ex+"dept"), iri(ex+"sales")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?dept (COUNT(?p) AS ?n) WHERE { ?p ex:dept ?dept }
		GROUP BY ?dept`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d: %v", len(rows), rows)
	}
	counts := map[string]string{}
	for _, r := range rows {
		counts[r["dept"].String()] = r["n"].String()
	}
	if counts[iri(ex+"eng").String()] != `"2"^^<http://www.w3.org/2001/XMLSchema#integer>` {
		t.Fatalf("expected eng count 2, got %v", counts[iri(ex+"eng").String()])
	}
}

func TestAggregateSumAvg(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"a"), iri(ex+"score"), rdfLitInt(10)),
		rdfTriple(iri(ex+"b"), iri(ex+"score"), rdfLitInt(20)),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT (SUM(?s) AS ?total) (AVG(?s) AS ?avg) WHERE { ?p ex:score ?s }`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestAggregateHaving(t *testing.T) {
	ds := newTestDataset(t,
		rdfTriple(iri(ex+"alice"), iri(ex+"dept"), iri(ex+"eng")),
		rdfTriple(iri(ex+"bob"), iri(ex+"dept"), iri(ex+"eng")),
		rdfTriple(iri(ex+"carol"), iri(ex+"dept"), iri(ex+"sales")),
	)
	rows := runSelect(t, ds, `
		PREFIX ex: <`+ex+`>
		SELECT ?dept (COUNT(?p) AS ?n) WHERE { ?p ex:dept ?dept }
		GROUP BY ?dept
		HAVING(COUNT(?p) > 1)`)
	if len(rows) != 1 || rows[0]["dept"].String() != iri(ex+"eng").String() {
		t.Fatalf("expected only eng (count 2), got %v", rows)
	}
}
