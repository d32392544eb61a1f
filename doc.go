// Package cepgo provides an embedded, in-memory incremental table engine.
//
// A table stores rows under a tree of indexes. Every change to a table
// produces a tray of rowops describing what changed, and aggregators
// attached to grouping indexes turn group changes into rowops of their own.
// The low level building blocks live in the row, rowop, table and agg
// packages; this package adds a fluent builder, structured logging and
// metrics around them.
//
// # Quick Start
//
//	rt := row.MustCompact(
//	    row.NewField("symbol", row.StringType()),
//	    row.NewField("id", row.Int32Type()),
//	    row.NewField("size", row.Int64Type()),
//	)
//	sum := agg.New("total", agg.Config{Op: agg.Sum, Field: "size"})
//	tt, _ := cepgo.NewTableType(rt).
//	    Hashed("bySymbol", "symbol").
//	    Fifo("bySymbol/last").
//	    Aggregator("bySymbol", sum).
//	    Build()
//	t, _ := cepgo.NewTable(tt, "trades", cepgo.WithLogLevel(slog.LevelDebug))
//	tray, _ := t.InsertRow(ctx, r)  // t.out:INSERT, t.total:INSERT
//	defer tray.Release()
//
// # Ownership
//
// Rows are reference counted. Trays returned by table operations belong to
// the caller, who must Release them. Tables are not safe for concurrent
// use; the handoff package moves encoded trays between goroutines that each
// own their tables.
package cepgo
