package codec

// Dictionary resolves the content hashes produced by Encode back to their
// original byte strings. Implementations back this with the id2str table
// (see store.Storage); codec itself has no storage opinion.
type Dictionary interface {
	// Lookup returns the bytes stored under hash, or ok=false if no entry
	// exists.
	Lookup(hash Hash128) (value []byte, ok bool, err error)
}

// MapDictionary is an in-memory Dictionary, mainly useful for tests and
// for decoding a single document's worth of terms without a backing
// store.
type MapDictionary map[Hash128][]byte

func (m MapDictionary) Lookup(hash Hash128) ([]byte, bool, error) {
	v, ok := m[hash]
	return v, ok, nil
}

// Put inserts entries idempotently: inserting the same (hash, value) pair
// twice is a no-op, but inserting a different value under an existing
// hash is a content collision and is reported rather than silently
// overwritten.
func (m MapDictionary) Put(entries ...DictEntry) error {
	for _, e := range entries {
		if existing, ok := m[e.Hash]; ok {
			if string(existing) != string(e.Value) {
				return &CollisionError{Hash: e.Hash, Existing: existing, New: e.Value}
			}
			continue
		}
		m[e.Hash] = e.Value
	}
	return nil
}
