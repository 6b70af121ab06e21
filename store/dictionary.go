package store

import (
	"bytes"

	"github.com/trigonrdf/trigon/codec"
)

// txnDictionary adapts a Transaction's TableID2Str namespace to
// codec.Dictionary, so codec.Decode can resolve hashed payload slots
// without knowing anything about tables or transactions.
type txnDictionary struct {
	txn Transaction
}

func (d txnDictionary) Lookup(hash codec.Hash128) ([]byte, bool, error) {
	v, err := d.txn.Get(TableID2Str, hash[:])
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// putDictEntries persists codec dictionary entries idempotently: an
// entry already present with the same value is left untouched, matching
// the teacher's storeString "skip if unchanged" check. A different value
// under an existing hash is surfaced as *codec.CollisionError rather than
// silently overwritten.
func putDictEntries(txn Transaction, entries []codec.DictEntry) error {
	for _, e := range entries {
		existing, err := txn.Get(TableID2Str, e.Hash[:])
		if err != nil && err != ErrNotFound {
			return err
		}
		if err == nil {
			if bytes.Equal(existing, e.Value) {
				continue
			}
			return &codec.CollisionError{Hash: e.Hash, Existing: existing, New: e.Value}
		}
		if err := txn.Set(TableID2Str, e.Hash[:], e.Value); err != nil {
			return err
		}
	}
	return nil
}
