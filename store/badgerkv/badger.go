// Package badgerkv is the on-disk store.Storage backend, built directly
// on badger/v4: each store.Table becomes a single-byte key prefix inside
// one badger database, and badger's own MVCC transactions supply the
// snapshot isolation store.Transaction promises.
package badgerkv

import (
	"bytes"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/trigonrdf/trigon/store"
)

// Storage is a badger-backed store.Storage.
type Storage struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at path.
func Open(path string) (*Storage, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Begin(writable bool) (store.Transaction, error) {
	return &Transaction{txn: s.db.NewTransaction(writable), writable: writable}, nil
}

func (s *Storage) Close() error { return s.db.Close() }
func (s *Storage) Sync() error  { return s.db.Sync() }

// NewBulkBatch returns a store.BulkBatch backed by badger's WriteBatch,
// which accepts writes well past the size a single transaction would
// hold in memory and commits them outside snapshot isolation.
func (s *Storage) NewBulkBatch() (store.BulkBatch, error) {
	return &bulkBatch{wb: s.db.NewWriteBatch()}, nil
}

type bulkBatch struct {
	wb *badger.WriteBatch
}

func (b *bulkBatch) Set(table store.Table, key, value []byte) error {
	return b.wb.Set(store.PrefixKey(table, key), value)
}

func (b *bulkBatch) Flush() error { return b.wb.Flush() }

// Transaction is a badger-backed store.Transaction.
type Transaction struct {
	txn      *badger.Txn
	writable bool
}

func (t *Transaction) Get(table store.Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	return value, err
}

func (t *Transaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return t.txn.Set(store.PrefixKey(table, key), value)
}

func (t *Transaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return t.txn.Delete(store.PrefixKey(table, key))
}

func (t *Transaction) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	tablePrefix := store.TablePrefix(table)

	var seekKey, scanPrefix []byte
	if start != nil {
		seekKey = store.PrefixKey(table, start)
		scanPrefix = seekKey
	} else {
		seekKey = tablePrefix
		scanPrefix = tablePrefix
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix
	it := t.txn.NewIterator(opts)

	var endKey []byte
	if end != nil {
		endKey = store.PrefixKey(table, end)
	}

	return &Iterator{
		it:      it,
		prefix:  tablePrefix,
		seekKey: seekKey,
		endKey:  endKey,
	}, nil
}

func (t *Transaction) Commit() error   { return t.txn.Commit() }
func (t *Transaction) Rollback() error { t.txn.Discard(); return nil }

// Iterator is a badger-backed store.Iterator.
type Iterator struct {
	it       *badger.Iterator
	prefix   []byte
	seekKey  []byte
	endKey   []byte
	started  bool
	hasValue bool
}

func (i *Iterator) Next() bool {
	if !i.started {
		i.it.Seek(i.seekKey)
		i.started = true
	} else {
		i.it.Next()
	}
	if !i.it.Valid() {
		i.hasValue = false
		return false
	}
	if i.endKey != nil && bytes.Compare(i.it.Item().Key(), i.endKey) >= 0 {
		i.hasValue = false
		return false
	}
	i.hasValue = true
	return true
}

func (i *Iterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	key := i.it.Item().Key()
	if len(key) <= len(i.prefix) {
		return nil
	}
	return key[len(i.prefix):]
}

func (i *Iterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}
	var value []byte
	err := i.it.Item().Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	return value, err
}

func (i *Iterator) Close() error {
	i.it.Close()
	return nil
}
