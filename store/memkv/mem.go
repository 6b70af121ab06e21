// Package memkv is an in-memory store.Storage backend, used by tests and
// by callers that want an ephemeral quad store without a badger file.
// There is no teacher file this is ported from: it exists purely to
// satisfy store.Storage so store's own tests don't need a disk.
package memkv

import (
	"sort"
	"strings"
	"sync"

	"github.com/trigonrdf/trigon/store"
)

// Storage is an in-memory store.Storage. A single writer lock serializes
// writable transactions; readers take a shared lock for the duration of
// their transaction, which is enough isolation for tests without
// replicating badger's MVCC.
type Storage struct {
	mu     sync.RWMutex
	tables [int(store.TableCount)]map[string][]byte
}

// Open returns a ready-to-use empty Storage.
func Open() *Storage {
	s := &Storage{}
	for i := range s.tables {
		s.tables[i] = make(map[string][]byte)
	}
	return s
}

func (s *Storage) Begin(writable bool) (store.Transaction, error) {
	if writable {
		s.mu.Lock()
	} else {
		s.mu.RLock()
	}
	return &Transaction{
		s:        s,
		writable: writable,
		pending:  make(map[store.Table]map[string][]byte),
		deleted:  make(map[store.Table]map[string]bool),
	}, nil
}

func (s *Storage) Close() error { return nil }
func (s *Storage) Sync() error  { return nil }

// Transaction is an in-memory store.Transaction: writes are buffered in
// an overlay and only applied to Storage on Commit.
type Transaction struct {
	s        *Storage
	writable bool
	pending  map[store.Table]map[string][]byte
	deleted  map[store.Table]map[string]bool
	done     bool
}

func (t *Transaction) Get(table store.Table, key []byte) ([]byte, error) {
	k := string(key)
	if t.deleted[table] != nil && t.deleted[table][k] {
		return nil, store.ErrNotFound
	}
	if v, ok := t.pending[table][k]; ok {
		return v, nil
	}
	if v, ok := t.s.tables[table][k]; ok {
		return v, nil
	}
	return nil, store.ErrNotFound
}

func (t *Transaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	if t.pending[table] == nil {
		t.pending[table] = make(map[string][]byte)
	}
	t.pending[table][string(key)] = append([]byte{}, value...)
	if t.deleted[table] != nil {
		delete(t.deleted[table], string(key))
	}
	return nil
}

func (t *Transaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	if t.deleted[table] == nil {
		t.deleted[table] = make(map[string]bool)
	}
	t.deleted[table][string(key)] = true
	if t.pending[table] != nil {
		delete(t.pending[table], string(key))
	}
	return nil
}

// Scan matches badgerkv's contract: a non-nil start is a key *prefix*,
// not a lower range bound -- badgerkv enforces this with
// badger.IteratorOptions.Prefix, so memkv must reject keys that merely
// sort at or after start but don't share it. end, when given, is an
// additional exclusive upper bound on top of the prefix match.
func (t *Transaction) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	seen := make(map[string]bool)
	var keys []string
	startStr := string(start)

	collect := func(k string) {
		if start != nil && !strings.HasPrefix(k, startStr) {
			return
		}
		if end != nil && k >= string(end) {
			return
		}
		if seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range t.s.tables[table] {
		if t.deleted[table] != nil && t.deleted[table][k] {
			continue
		}
		collect(k)
	}
	for k := range t.pending[table] {
		collect(k)
	}
	sort.Strings(keys)

	values := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := t.pending[table][k]; ok {
			values[k] = v
		} else {
			values[k] = t.s.tables[table][k]
		}
	}

	return &Iterator{keys: keys, values: values, pos: -1}, nil
}

func (t *Transaction) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.unlock()
	if !t.writable {
		return nil
	}
	for table, kv := range t.pending {
		for k, v := range kv {
			t.s.tables[table][k] = v
		}
	}
	for table, ks := range t.deleted {
		for k := range ks {
			delete(t.s.tables[table], k)
		}
	}
	return nil
}

func (t *Transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.unlock()
	return nil
}

func (t *Transaction) unlock() {
	if t.writable {
		t.s.mu.Unlock()
	} else {
		t.s.mu.RUnlock()
	}
}

// Iterator is an in-memory store.Iterator over a pre-sorted key snapshot.
type Iterator struct {
	keys   []string
	values map[string][]byte
	pos    int
}

func (i *Iterator) Next() bool {
	i.pos++
	return i.pos < len(i.keys)
}

func (i *Iterator) Key() []byte {
	if i.pos < 0 || i.pos >= len(i.keys) {
		return nil
	}
	return []byte(i.keys[i.pos])
}

func (i *Iterator) Value() ([]byte, error) {
	if i.pos < 0 || i.pos >= len(i.keys) {
		return nil, store.ErrNotFound
	}
	return i.values[i.keys[i.pos]], nil
}

func (i *Iterator) Close() error { return nil }
