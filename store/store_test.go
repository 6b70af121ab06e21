package store_test

import (
	"testing"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/store"
	"github.com/trigonrdf/trigon/store/memkv"
)

func newTestStore(t *testing.T) *store.QuadStore {
	t.Helper()
	qs, err := store.New(memkv.Open())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return qs
}

func TestInsertAndContains(t *testing.T) {
	qs := newTestStore(t)
	q := rdf.NewTriple(
		rdf.NewNamedNode("http://example.org/s"),
		rdf.NewNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
	)
	if err := qs.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := qs.Contains(q)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatalf("expected quad to be present")
	}

	count, err := qs.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestRemove(t *testing.T) {
	qs := newTestStore(t)
	q := rdf.NewTriple(
		rdf.NewNamedNode("http://example.org/s"),
		rdf.NewNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
	)
	if err := qs.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := qs.Remove(q); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, err := qs.Contains(q)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatalf("expected quad to be gone after Remove")
	}
}

func TestQueryPatterns(t *testing.T) {
	qs := newTestStore(t)
	alice := rdf.NewNamedNode("http://example.org/alice")
	bob := rdf.NewNamedNode("http://example.org/bob")
	knows := rdf.NewNamedNode("http://example.org/knows")

	quads := []rdf.Quad{
		rdf.NewTriple(alice, knows, bob),
		rdf.NewTriple(bob, knows, alice),
		rdf.NewTriple(alice, knows, alice),
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
	defer snap.Close()

	it, err := snap.Query(store.Pattern{Subject: alice, Predicate: knows, Object: store.NewVariable("o")})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer it.Close()

	var got []rdf.Quad
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			t.Fatalf("Quad: %v", err)
		}
		got = append(got, q)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for alice knows ?o, got %d: %v", len(got), got)
	}
}

func TestClearGraph(t *testing.T) {
	qs := newTestStore(t)
	g := rdf.NewNamedNode("http://example.org/graph1")
	q := rdf.NewQuad(
		rdf.NewNamedNode("http://example.org/s"),
		rdf.NewNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
		g,
	)
	if err := qs.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	txn, err := qs.Begin(true)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := txn.Clear(g); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ok, err := qs.Contains(q)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatalf("expected graph to be cleared")
	}
}

func TestBulkLoad(t *testing.T) {
	kv := memkv.Open()
	quads := []rdf.Quad{
		rdf.NewTriple(rdf.NewNamedNode("http://example.org/s1"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("o1")),
		rdf.NewTriple(rdf.NewNamedNode("http://example.org/s2"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("o2")),
	}
	if err := store.BulkLoad(kv, quads); err != nil {
		t.Fatalf("BulkLoad: %v", err)
	}

	qs, err := store.New(kv, store.SkipVersionCheck())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	count, err := qs.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}
