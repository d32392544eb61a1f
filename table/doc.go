// Package table implements the incremental table: a tree of index types
// describing how rows are grouped and ordered, per-table runtime indexes,
// and the update algorithm that turns one rowop into an output tray.
//
// # Structure
//
// A TableType combines a row type with a tree of IndexType values rooted at
// an implicit RootIndexType. Index types reserve private slices of every
// RowHandle through a shared RowHandleType while the table type is being
// initialized; after that the layout is frozen.
//
// A grouping index (a HashedIndexType with nested index types) partitions
// rows by key. Each partition is a GroupHandle that owns one runtime Index
// per nested type and one Aggregator per aggregator type attached to the
// grouping index.
//
// # Updates
//
// Table.Insert places a row into every index of the tree. When a unique
// index rejects the row, all partial work is undone and the table is left
// as it was. Table.DeleteRow finds the stored row by key and removes it
// bottom-up. Either way the result is a Tray whose first rowop is the
// table's own notification, followed by the rowops produced by aggregators,
// innermost groups first.
//
// # Threading
//
// A Table and everything it owns belong to one goroutine at a time. Row
// reference counts are not atomic. Types are immutable once initialized and
// may be shared.
package table
