package results_test

import (
	"context"
	"strings"
	"testing"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/results"
	"github.com/trigonrdf/trigon/serialize"
	"github.com/trigonrdf/trigon/sparql"
	"github.com/trigonrdf/trigon/store"
	"github.com/trigonrdf/trigon/store/memkv"
)

func newDataset(t *testing.T) sparql.QueryableDataset {
	t.Helper()
	qs, err := store.New(memkv.Open())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	q := rdf.NewTriple(
		rdf.NewNamedNode("http://example.org/alice"),
		rdf.NewNamedNode("http://example.org/name"),
		rdf.NewLiteral("Alice"),
	)
	if err := qs.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	snap, err := qs.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return sparql.StoreDataset{Snapshot: snap}
}

func runQuery(t *testing.T, ds sparql.QueryableDataset, query string) sparql.Result {
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

func TestWriteJSONSelect(t *testing.T) {
	ds := newDataset(t)
	res := runQuery(t, ds, `SELECT ?name WHERE { ?s <http://example.org/name> ?name }`)
	out, err := results.WriteJSON(res)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(string(out), `"Alice"`) {
		t.Fatalf("expected JSON output to contain Alice, got %s", out)
	}
	if !strings.Contains(string(out), `"vars"`) {
		t.Fatalf("expected head.vars in JSON output, got %s", out)
	}
}

func TestWriteJSONAsk(t *testing.T) {
	ds := newDataset(t)
	res := runQuery(t, ds, `ASK { ?s <http://example.org/name> "Alice" }`)
	out, err := results.WriteJSON(res)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(string(out), `"boolean": true`) {
		t.Fatalf("expected boolean true in JSON output, got %s", out)
	}
}

func TestWriteXMLSelect(t *testing.T) {
	ds := newDataset(t)
	res := runQuery(t, ds, `SELECT ?name WHERE { ?s <http://example.org/name> ?name }`)
	out, err := results.WriteXML(res)
	if err != nil {
		t.Fatalf("WriteXML: %v", err)
	}
	if !strings.Contains(string(out), "Alice") {
		t.Fatalf("expected XML output to contain Alice, got %s", out)
	}
	if !strings.Contains(string(out), "sparql-results#") {
		t.Fatalf("expected SPARQL results namespace, got %s", out)
	}
}

func TestWriteCSVSelect(t *testing.T) {
	ds := newDataset(t)
	res := runQuery(t, ds, `SELECT ?name WHERE { ?s <http://example.org/name> ?name }`)
	out, err := results.WriteCSV(res)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 || lines[0] != "name" || lines[1] != "Alice" {
		t.Fatalf("unexpected CSV output: %q", out)
	}
}

func TestWriteTSVSelect(t *testing.T) {
	ds := newDataset(t)
	res := runQuery(t, ds, `SELECT ?name WHERE { ?s <http://example.org/name> ?name }`)
	out, err := results.WriteTSV(res)
	if err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 || lines[0] != "?name" || lines[1] != `"Alice"` {
		t.Fatalf("unexpected TSV output: %q", out)
	}
}

func TestWriteConstructNTriples(t *testing.T) {
	ds := newDataset(t)
	res := runQuery(t, ds, `CONSTRUCT { ?s <http://example.org/copy> ?name } WHERE { ?s <http://example.org/name> ?name }`)
	out, err := results.WriteConstruct(res, serialize.FormatNTriples)
	if err != nil {
		t.Fatalf("WriteConstruct: %v", err)
	}
	if !strings.Contains(string(out), "http://example.org/copy") {
		t.Fatalf("unexpected N-Triples output: %q", out)
	}
}
