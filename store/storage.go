// Package store implements the persisted quad index: nine key orderings
// over (subject, predicate, object, graph), a content-addressed string
// dictionary, a graph-name table, and a version marker, on top of a
// pluggable key-value Storage interface.
package store

import "errors"

var (
	// ErrNotFound is returned by Transaction.Get for a missing key.
	ErrNotFound = errors.New("store: key not found")
	// ErrTransactionRO is returned by Set/Delete on a read-only transaction.
	ErrTransactionRO = errors.New("store: transaction is read-only")
	// ErrUnsupportedVersion is returned by New when the on-disk version
	// marker doesn't match this build's expected layout version. There is
	// no silent migration path.
	ErrUnsupportedVersion = errors.New("store: unsupported on-disk version")
)

// CurrentVersion is the layout version this build writes and expects to
// read. Bump it, and add an explicit migration, whenever a table's key or
// value format changes.
const CurrentVersion uint32 = 1

// Storage is the key-value engine a QuadStore is built on.
type Storage interface {
	Begin(writable bool) (Transaction, error)
	Close() error
	Sync() error
}

// Transaction gives snapshot-isolated read/write access to one logical
// table namespace at a time, selected by Table.
type Transaction interface {
	Get(table Table, key []byte) ([]byte, error)
	Set(table Table, key, value []byte) error
	Delete(table Table, key []byte) error

	// Scan iterates, in key order, the keys within table that begin with
	// start (every key when start is nil), stopping before end when end
	// is non-nil.
	Scan(table Table, start, end []byte) (Iterator, error)

	Commit() error
	Rollback() error
}

// Iterator walks key/value pairs returned by Transaction.Scan.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// Table is a logical table within the key-value engine; each gets its own
// byte prefix so a single Storage can multiplex all of them.
type Table byte

const (
	// TableID2Str maps a codec.Hash128 to the original string it hashes.
	TableID2Str Table = iota

	// Default-graph orderings (fast path: no graph component in the key).
	TableDSPO
	TableDPOS
	TableDOSP

	// Named-graph orderings.
	TableSPOG
	TablePOSG
	TableOSPG
	TableGSPO
	TableGPOS
	TableGOSP

	// TableGraphs enumerates the distinct non-default graph names with
	// quads in the store.
	TableGraphs

	// TableVersion holds a single CurrentVersion-sized value: the on-disk
	// layout version.
	TableVersion

	// TableCount is the number of tables; not itself a valid Table.
	TableCount
)

func (t Table) String() string {
	switch t {
	case TableID2Str:
		return "id2str"
	case TableDSPO:
		return "dspo"
	case TableDPOS:
		return "dpos"
	case TableDOSP:
		return "dosp"
	case TableSPOG:
		return "spog"
	case TablePOSG:
		return "posg"
	case TableOSPG:
		return "ospg"
	case TableGSPO:
		return "gspo"
	case TableGPOS:
		return "gpos"
	case TableGOSP:
		return "gosp"
	case TableGraphs:
		return "graphs"
	case TableVersion:
		return "version"
	default:
		return "unknown"
	}
}

// TablePrefix returns the single-byte namespace prefix for a table.
func TablePrefix(table Table) []byte { return []byte{byte(table)} }

// PrefixKey prepends table's prefix to key.
func PrefixKey(table Table, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(table)
	copy(out[1:], key)
	return out
}
