package store

import (
	"fmt"

	"github.com/trigonrdf/trigon/codec"
	"github.com/trigonrdf/trigon/rdf"
)

// Variable marks an unbound position in a Pattern.
type Variable struct{ Name string }

func NewVariable(name string) Variable { return Variable{Name: name} }
func (v Variable) String() string      { return "?" + v.Name }

// Pattern is a quad pattern: each field is either an rdf.Term (bound) or
// a Variable (unbound). Both a nil Graph and an unbound Variable{} Graph
// match only the default graph -- selectIndex routes any unbound graph
// position to the default-graph-only D-tables. Matching every graph
// requires enumerating named graphs (Snapshot.NamedGraphs) and querying
// each one bound, which is what the SPARQL executor's Graph case does
// before ever calling Quads with an unbound graph variable.
type Pattern struct {
	Subject   any
	Predicate any
	Object    any
	Graph     any
}

func isVariable(v any) bool {
	_, ok := v.(Variable)
	return ok || v == nil
}

// QuadIterator streams quads matching a Pattern. Callers must call Close.
type QuadIterator interface {
	Next() bool
	Quad() (rdf.Quad, error)
	Err() error
	Close() error
}

// Snapshot is a read-only, point-in-time view of the store.
type Snapshot struct {
	store *QuadStore
	txn   Transaction
}

// Query scans the index ordering best matching pattern's bound
// positions.
func (s *Snapshot) Query(pattern Pattern) (QuadIterator, error) {
	table, keyPattern := selectIndex(pattern)
	prefix, err := buildScanPrefix(pattern, keyPattern)
	if err != nil {
		return nil, err
	}
	it, err := s.txn.Scan(table, prefix, nil)
	if err != nil {
		return nil, err
	}
	return &quadIterator{txn: s.txn, it: it, keyPattern: keyPattern}, nil
}

// Close releases the snapshot's underlying transaction.
func (s *Snapshot) Close() error { return s.txn.Rollback() }

// NamedGraphs lists every distinct non-default graph name with quads in
// the store, in O(graph-count) by scanning TableGraphs rather than the
// quad indexes.
func (s *Snapshot) NamedGraphs() ([]rdf.Term, error) {
	it, err := s.txn.Scan(TableGraphs, nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	dict := txnDictionary{txn: s.txn}
	var out []rdf.Term
	for it.Next() {
		var enc codec.Encoded
		key := it.Key()
		if len(key) != len(enc) {
			return nil, fmt.Errorf("store: malformed graph-table key (len %d)", len(key))
		}
		copy(enc[:], key)
		term, err := codec.Decode(enc, dict)
		if err != nil {
			return nil, fmt.Errorf("store: decode graph name: %w", err)
		}
		out = append(out, term)
	}
	return out, it.Err()
}

// selectIndex picks the ordering whose key prefix covers the most bound
// leading positions, preferring the cheaper default-graph orderings when
// the graph position is unbound or a variable. Positions: 0=S, 1=P, 2=O,
// 3=G. keyPattern lists, in key order, which pattern position each key
// component encodes.
func selectIndex(p Pattern) (Table, []int) {
	sBound := !isVariable(p.Subject)
	pBound := !isVariable(p.Predicate)
	oBound := !isVariable(p.Object)
	gBound := p.Graph != nil && !isVariable(p.Graph)

	if !gBound {
		switch {
		case sBound && pBound:
			return TableDSPO, []int{0, 1, 2}
		case pBound && oBound:
			return TableDPOS, []int{1, 2, 0}
		case oBound && sBound:
			return TableDOSP, []int{2, 0, 1}
		case sBound:
			return TableDSPO, []int{0, 1, 2}
		case pBound:
			return TableDPOS, []int{1, 2, 0}
		case oBound:
			return TableDOSP, []int{2, 0, 1}
		default:
			return TableDSPO, []int{0, 1, 2}
		}
	}

	switch {
	case sBound && pBound:
		return TableGSPO, []int{3, 0, 1, 2}
	case pBound && oBound:
		return TableGPOS, []int{3, 1, 2, 0}
	case oBound && sBound:
		return TableGOSP, []int{3, 2, 0, 1}
	case sBound:
		return TableGSPO, []int{3, 0, 1, 2}
	case pBound:
		return TableGPOS, []int{3, 1, 2, 0}
	case oBound:
		return TableGOSP, []int{3, 2, 0, 1}
	default:
		return TableGSPO, []int{3, 0, 1, 2}
	}
}

// buildScanPrefix encodes the bound terms in key order, stopping at the
// first variable (or, for a default-graph ordering, past S/P/O only --
// the graph is implicit and never part of the key).
func buildScanPrefix(p Pattern, keyPattern []int) ([]byte, error) {
	positions := [4]any{p.Subject, p.Predicate, p.Object, p.Graph}
	if positions[3] == nil {
		positions[3] = rdf.NewDefaultGraph()
	}

	var prefix []byte
	for _, idx := range keyPattern {
		term := positions[idx]
		if isVariable(term) {
			break
		}
		t, ok := term.(rdf.Term)
		if !ok {
			return nil, fmt.Errorf("store: pattern position %d is neither a Variable nor an rdf.Term", idx)
		}
		enc, _ := codec.Encode(t)
		prefix = append(prefix, enc[:]...)
	}
	return prefix, nil
}

type quadIterator struct {
	txn        Transaction
	it         Iterator
	keyPattern []int
	closed     bool
	err        error
}

func (qi *quadIterator) Next() bool {
	if qi.closed || qi.err != nil {
		return false
	}
	return qi.it.Next()
}

func (qi *quadIterator) Err() error { return qi.err }

const encSize = 1 + 16 + 16

func (qi *quadIterator) Quad() (rdf.Quad, error) {
	key := qi.it.Key()
	if len(key) < len(qi.keyPattern)*encSize {
		return rdf.Quad{}, fmt.Errorf("store: malformed index key (len %d)", len(key))
	}

	var components [4]codec.Encoded
	for i, idx := range qi.keyPattern {
		var enc codec.Encoded
		copy(enc[:], key[i*encSize:(i+1)*encSize])
		components[idx] = enc
	}

	dict := txnDictionary{txn: qi.txn}
	subject, err := codec.Decode(components[0], dict)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("store: decode subject: %w", err)
	}
	predicate, err := codec.Decode(components[1], dict)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("store: decode predicate: %w", err)
	}
	object, err := codec.Decode(components[2], dict)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("store: decode object: %w", err)
	}

	var graph rdf.Term
	if len(qi.keyPattern) > 3 {
		graph, err = codec.Decode(components[3], dict)
		if err != nil {
			return rdf.Quad{}, fmt.Errorf("store: decode graph: %w", err)
		}
	} else {
		graph = rdf.NewDefaultGraph()
	}

	return rdf.NewQuad(subject, predicate, object, graph), nil
}

func (qi *quadIterator) Close() error {
	if qi.closed {
		return nil
	}
	qi.closed = true
	return qi.it.Close()
}
