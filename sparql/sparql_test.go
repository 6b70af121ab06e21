package sparql_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/sparql"
	"github.com/trigonrdf/trigon/store"
	"github.com/trigonrdf/trigon/store/memkv"
)

// newTestDataset builds an in-memory sparql.QueryableDataset loaded with
// quads, grounded on store_test.go's newTestStore helper.
func newTestDataset(t *testing.T, quads ...rdf.Quad) sparql.QueryableDataset {
	t.Helper()
	qs, err := store.New(memkv.Open())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	for _, q := range quads {
		if err := qs.Insert(q); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	snap, err := qs.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return sparql.StoreDataset{Snapshot: snap}
}

// runSelect parses and executes a SELECT/ASK query, returning every
// solution row as a string-keyed map for easy assertions.
func runSelect(t *testing.T, dataset sparql.QueryableDataset, query string) []map[string]rdf.Term {
	t.Helper()
	q, err := sparql.Parse(query)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := sparql.Execute(context.Background(), q, dataset, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var rows []map[string]rdf.Term
	defer res.Bindings.Close()
	for res.Bindings.Next() {
		sol := res.Bindings.Solution()
		row := make(map[string]rdf.Term, len(sol))
		for v, t := range sol {
			row[string(v)] = t
		}
		rows = append(rows, row)
	}
	if err := res.Bindings.Err(); err != nil {
		t.Fatalf("iteration: %v", err)
	}
	return rows
}

func iri(s string) rdf.NamedNode { return rdf.NewNamedNode(s) }

func rdfTriple(s, p, o rdf.Term) rdf.Quad { return rdf.NewTriple(s, p, o) }

func rdfLitStr(s string) rdf.Literal { return rdf.NewLiteral(s) }

func rdfLitInt(n int) rdf.Literal {
	return rdf.NewTypedLiteral(strconv.Itoa(n), rdf.XSDInteger)
}

func rdfLitBool(b bool) rdf.Literal {
	return rdf.NewTypedLiteral(strconv.FormatBool(b), rdf.XSDBoolean)
}

const ex = "http://example.org/"
