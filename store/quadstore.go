package store

import (
	"github.com/trigonrdf/trigon/codec"
	"github.com/trigonrdf/trigon/rdf"
)

// QuadStore is the top-level handle on a persisted quad index: nine key
// orderings, the id2str dictionary, the graph-name table, and the
// version marker, all multiplexed over one Storage.
type QuadStore struct {
	storage Storage
}

// Option configures QuadStore construction.
type Option func(*options)

type options struct {
	skipVersionCheck bool
}

// SkipVersionCheck disables the on-disk version check. Only meant for
// tests that reuse a Storage across QuadStore instances without ever
// persisting one.
func SkipVersionCheck() Option {
	return func(o *options) { o.skipVersionCheck = true }
}

// New wraps an already-open Storage as a QuadStore, checking (and, on a
// fresh store, writing) the on-disk version marker.
func New(s Storage, opts ...Option) (*QuadStore, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	qs := &QuadStore{storage: s}
	if o.skipVersionCheck {
		return qs, nil
	}
	if err := qs.checkOrInitVersion(); err != nil {
		return nil, err
	}
	return qs, nil
}

func (s *QuadStore) checkOrInitVersion() error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	raw, err := txn.Get(TableVersion, nil)
	if err == ErrNotFound {
		buf := encodeVersion(CurrentVersion)
		if err := txn.Set(TableVersion, nil, buf); err != nil {
			return err
		}
		return txn.Commit()
	}
	if err != nil {
		return err
	}
	if decodeVersion(raw) != CurrentVersion {
		return ErrUnsupportedVersion
	}
	return nil
}

func encodeVersion(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func decodeVersion(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Close closes the underlying storage.
func (s *QuadStore) Close() error { return s.storage.Close() }

// Sync flushes writes to disk.
func (s *QuadStore) Sync() error { return s.storage.Sync() }

// Insert adds a single quad in its own transaction.
func (s *QuadStore) Insert(q rdf.Quad) error {
	txn, err := s.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()
	if err := txn.Insert(q); err != nil {
		return err
	}
	return txn.Commit()
}

// Remove deletes a single quad in its own transaction. Removing a quad
// that isn't present is not an error.
func (s *QuadStore) Remove(q rdf.Quad) error {
	txn, err := s.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()
	if err := txn.Remove(q); err != nil {
		return err
	}
	return txn.Commit()
}

// Contains reports whether q is present, checked against the SPOG index.
func (s *QuadStore) Contains(q rdf.Quad) (bool, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	sEnc, _ := codec.Encode(q.Subject)
	pEnc, _ := codec.Encode(q.Predicate)
	oEnc, _ := codec.Encode(q.Object)
	gEnc, _ := codec.Encode(q.Graph)

	key := quadKey(sEnc, pEnc, oEnc, gEnc)
	_, err = txn.Get(TableSPOG, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the exact number of quads in the store, scanning the
// SPOG index in full.
func (s *QuadStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(TableSPOG, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var n int64
	for it.Next() {
		n++
	}
	return n, nil
}

func quadKey(terms ...codec.Encoded) []byte {
	out := make([]byte, 0, len(terms)*len(codec.Encoded{}))
	for _, t := range terms {
		out = append(out, t[:]...)
	}
	return out
}

// Snapshot opens a point-in-time, read-only view for querying.
func (s *QuadStore) Snapshot() (*Snapshot, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	return &Snapshot{store: s, txn: txn}, nil
}

// Begin starts a WriteTxn (writable=true) or a read-only query txn.
func (s *QuadStore) Begin(writable bool) (*WriteTxn, error) {
	txn, err := s.storage.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &WriteTxn{store: s, txn: txn, writable: writable}, nil
}
