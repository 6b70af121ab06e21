package sparql

import (
	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/store"
)

// StoreDataset adapts a *store.Snapshot to QueryableDataset, translating
// the sparql.Var unbound marker to store.Variable so the evaluator never
// has to import the store package's pattern type directly -- only this
// file does.
type StoreDataset struct {
	Snapshot *store.Snapshot
}

func (d StoreDataset) Quads(pattern QuadPattern) (QuadIterator, error) {
	sp := store.Pattern{
		Subject:   toStoreTerm(pattern.Subject),
		Predicate: toStoreTerm(pattern.Predicate),
		Object:    toStoreTerm(pattern.Object),
		Graph:     toStoreGraph(pattern.Graph),
	}
	it, err := d.Snapshot.Query(sp)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (d StoreDataset) NamedGraphs() ([]rdf.Term, error) {
	return d.Snapshot.NamedGraphs()
}

func toStoreTerm(pos any) any {
	if v, ok := pos.(Var); ok {
		return store.NewVariable(string(v))
	}
	return pos
}

// toStoreGraph additionally distinguishes "no GRAPH clause" (nil, which
// store.Pattern treats as default-graph-only) from an explicit graph
// variable -- this adapter is never asked to resolve an unbound graph
// variable itself; Executor.eval's Graph case enumerates named graphs
// before calling Quads, so pattern.Graph here is always nil or bound.
func toStoreGraph(pos any) any {
	if pos == nil {
		return nil
	}
	return toStoreTerm(pos)
}
