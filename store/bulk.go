package store

import (
	"sort"

	"github.com/trigonrdf/trigon/codec"
	"github.com/trigonrdf/trigon/rdf"
)

// BulkWriter is implemented by Storage backends that can accept a large,
// non-transactional write batch (badgerkv does, via badger's WriteBatch).
// Storages that don't implement it fall back to one large storage
// transaction in BulkLoad.
type BulkWriter interface {
	Storage
	NewBulkBatch() (BulkBatch, error)
}

// BulkBatch accepts writes outside of transactional isolation: readers
// may observe a batch partway through, and a batch interrupted midway
// leaves whichever keys were already flushed in place -- consistent
// per-key, not atomic across the whole load.
type BulkBatch interface {
	Set(table Table, key, value []byte) error
	Flush() error
}

type entry struct {
	table Table
	key   []byte
}

// BulkLoad ingests quads outside of the atomic-transaction path: it
// groups each ordering's keys, sorts them so writes land in key order
// (the write pattern badger's WriteBatch is optimized for), and streams
// them through a BulkBatch if the storage supports one. There is no
// bounded change-list here -- this is the path large ingests are meant to
// use instead of WriteTxn.
func BulkLoad(s Storage, quads []rdf.Quad) error {
	var entries []entry
	dictValues := make(map[codec.Hash128][]byte)

	for _, q := range quads {
		sEnc, sEntries := codec.Encode(q.Subject)
		pEnc, pEntries := codec.Encode(q.Predicate)
		oEnc, oEntries := codec.Encode(q.Object)
		gEnc, gEntries := codec.Encode(q.Graph)

		for _, es := range [][]codec.DictEntry{sEntries, pEntries, oEntries, gEntries} {
			for _, e := range es {
				dictValues[e.Hash] = e.Value
			}
		}

		_, isDefaultGraph := q.Graph.(rdf.DefaultGraph)
		if isDefaultGraph {
			entries = append(entries,
				entry{TableDSPO, quadKey(sEnc, pEnc, oEnc)},
				entry{TableDPOS, quadKey(pEnc, oEnc, sEnc)},
				entry{TableDOSP, quadKey(oEnc, sEnc, pEnc)},
			)
		}
		entries = append(entries,
			entry{TableSPOG, quadKey(sEnc, pEnc, oEnc, gEnc)},
			entry{TablePOSG, quadKey(pEnc, oEnc, sEnc, gEnc)},
			entry{TableOSPG, quadKey(oEnc, sEnc, pEnc, gEnc)},
			entry{TableGSPO, quadKey(gEnc, sEnc, pEnc, oEnc)},
			entry{TableGPOS, quadKey(gEnc, pEnc, oEnc, sEnc)},
			entry{TableGOSP, quadKey(gEnc, oEnc, sEnc, pEnc)},
		)
		if !isDefaultGraph {
			entries = append(entries, entry{TableGraphs, append([]byte{}, gEnc[:]...)})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].table != entries[j].table {
			return entries[i].table < entries[j].table
		}
		return string(entries[i].key) < string(entries[j].key)
	})

	if bw, ok := s.(BulkWriter); ok {
		return bulkLoadViaBatch(bw, entries, dictValues)
	}
	return bulkLoadViaTxn(s, entries, dictValues)
}

func bulkLoadViaBatch(bw BulkWriter, entries []entry, dictValues map[codec.Hash128][]byte) error {
	batch, err := bw.NewBulkBatch()
	if err != nil {
		return err
	}
	for hash, value := range dictValues {
		if err := batch.Set(TableID2Str, hash[:], value); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := batch.Set(e.table, e.key, []byte{}); err != nil {
			return err
		}
	}
	return batch.Flush()
}

func bulkLoadViaTxn(s Storage, entries []entry, dictValues map[codec.Hash128][]byte) error {
	txn, err := s.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for hash, value := range dictValues {
		if err := txn.Set(TableID2Str, hash[:], value); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := txn.Set(e.table, e.key, []byte{}); err != nil {
			return err
		}
	}
	return txn.Commit()
}
