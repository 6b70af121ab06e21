package store

import (
	"fmt"

	"github.com/trigonrdf/trigon/codec"
	"github.com/trigonrdf/trigon/rdf"
)

// MaxTxnChanges bounds how many Insert/Remove calls a single WriteTxn
// accepts before refusing further writes. Atomic transactions hold their
// change set in memory until Commit; large ingests should use BulkLoad
// instead, which streams pre-sorted runs directly to storage.
const MaxTxnChanges = 100_000

// WriteTxn is an atomic, bounded batch of quad insertions and removals.
// It gives all-or-nothing visibility: readers never see a partially
// applied batch, because the underlying Storage transaction isn't
// committed until Commit is called.
type WriteTxn struct {
	store    *QuadStore
	txn      Transaction
	writable bool
	changes  int
}

// Insert adds q to the transaction's pending change set.
func (t *WriteTxn) Insert(q rdf.Quad) error {
	if !t.writable {
		return ErrTransactionRO
	}
	if t.changes >= MaxTxnChanges {
		return fmt.Errorf("store: transaction exceeds %d changes, use BulkLoad for large ingests", MaxTxnChanges)
	}
	if !q.IsValid() {
		return fmt.Errorf("store: quad is missing required terms")
	}
	if err := insertQuad(t.txn, q); err != nil {
		return err
	}
	t.changes++
	return nil
}

// Remove deletes q from the transaction's pending change set. Removing a
// quad that isn't present is not an error.
func (t *WriteTxn) Remove(q rdf.Quad) error {
	if !t.writable {
		return ErrTransactionRO
	}
	if t.changes >= MaxTxnChanges {
		return fmt.Errorf("store: transaction exceeds %d changes, use BulkLoad for large ingests", MaxTxnChanges)
	}
	if err := removeQuad(t.txn, q); err != nil {
		return err
	}
	t.changes++
	return nil
}

// Clear removes every quad in the given graph. graph may be
// rdf.DefaultGraph{} to clear the default graph.
func (t *WriteTxn) Clear(graph rdf.Term) error {
	if !t.writable {
		return ErrTransactionRO
	}
	snap := &Snapshot{store: t.store, txn: t.txn}
	it, err := snap.Query(Pattern{Graph: graph})
	if err != nil {
		return err
	}
	defer it.Close()

	var quads []rdf.Quad
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			return err
		}
		quads = append(quads, q)
	}
	if err := it.Err(); err != nil {
		return err
	}
	for _, q := range quads {
		if err := t.Remove(q); err != nil {
			return err
		}
	}
	return nil
}

// Commit applies every pending change atomically.
func (t *WriteTxn) Commit() error { return t.txn.Commit() }

// Rollback discards every pending change. Safe to call after Commit.
func (t *WriteTxn) Rollback() error { return t.txn.Rollback() }

func insertQuad(txn Transaction, q rdf.Quad) error {
	sEnc, sEntries := codec.Encode(q.Subject)
	pEnc, pEntries := codec.Encode(q.Predicate)
	oEnc, oEntries := codec.Encode(q.Object)
	gEnc, gEntries := codec.Encode(q.Graph)

	for _, entries := range [][]codec.DictEntry{sEntries, pEntries, oEntries, gEntries} {
		if err := putDictEntries(txn, entries); err != nil {
			return err
		}
	}

	empty := []byte{}
	_, isDefaultGraph := q.Graph.(rdf.DefaultGraph)

	if isDefaultGraph {
		if err := txn.Set(TableDSPO, quadKey(sEnc, pEnc, oEnc), empty); err != nil {
			return err
		}
		if err := txn.Set(TableDPOS, quadKey(pEnc, oEnc, sEnc), empty); err != nil {
			return err
		}
		if err := txn.Set(TableDOSP, quadKey(oEnc, sEnc, pEnc), empty); err != nil {
			return err
		}
	}

	if err := txn.Set(TableSPOG, quadKey(sEnc, pEnc, oEnc, gEnc), empty); err != nil {
		return err
	}
	if err := txn.Set(TablePOSG, quadKey(pEnc, oEnc, sEnc, gEnc), empty); err != nil {
		return err
	}
	if err := txn.Set(TableOSPG, quadKey(oEnc, sEnc, pEnc, gEnc), empty); err != nil {
		return err
	}
	if err := txn.Set(TableGSPO, quadKey(gEnc, sEnc, pEnc, oEnc), empty); err != nil {
		return err
	}
	if err := txn.Set(TableGPOS, quadKey(gEnc, pEnc, oEnc, sEnc), empty); err != nil {
		return err
	}
	if err := txn.Set(TableGOSP, quadKey(gEnc, oEnc, sEnc, pEnc), empty); err != nil {
		return err
	}

	if !isDefaultGraph {
		if err := txn.Set(TableGraphs, gEnc[:], empty); err != nil {
			return err
		}
	}
	return nil
}

func removeQuad(txn Transaction, q rdf.Quad) error {
	sEnc, _ := codec.Encode(q.Subject)
	pEnc, _ := codec.Encode(q.Predicate)
	oEnc, _ := codec.Encode(q.Object)
	gEnc, _ := codec.Encode(q.Graph)

	_, isDefaultGraph := q.Graph.(rdf.DefaultGraph)

	if isDefaultGraph {
		if err := txn.Delete(TableDSPO, quadKey(sEnc, pEnc, oEnc)); err != nil {
			return err
		}
		if err := txn.Delete(TableDPOS, quadKey(pEnc, oEnc, sEnc)); err != nil {
			return err
		}
		if err := txn.Delete(TableDOSP, quadKey(oEnc, sEnc, pEnc)); err != nil {
			return err
		}
	}

	if err := txn.Delete(TableSPOG, quadKey(sEnc, pEnc, oEnc, gEnc)); err != nil {
		return err
	}
	if err := txn.Delete(TablePOSG, quadKey(pEnc, oEnc, sEnc, gEnc)); err != nil {
		return err
	}
	if err := txn.Delete(TableOSPG, quadKey(oEnc, sEnc, pEnc, gEnc)); err != nil {
		return err
	}
	if err := txn.Delete(TableGSPO, quadKey(gEnc, sEnc, pEnc, oEnc)); err != nil {
		return err
	}
	if err := txn.Delete(TableGPOS, quadKey(gEnc, pEnc, oEnc, sEnc)); err != nil {
		return err
	}
	if err := txn.Delete(TableGOSP, quadKey(gEnc, oEnc, sEnc, pEnc)); err != nil {
		return err
	}

	// id2str and the graphs table are never garbage-collected here: other
	// quads may still reference the same strings or graph name.
	return nil
}
