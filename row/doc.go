// Package row provides rows and row types.
//
// A [Row] is an immutable byte payload with a reference count. Its layout is
// fully determined by the [Type] that created it; [Compact] is the reference
// layout:
//
//	[null bitmap: ceil(n/8) bytes][end offsets: n × uint32 LE][field data]
//
// Fixed-width values are little-endian, arrays are concatenations of their
// elements and strings are stored as raw bytes.
//
// # Ownership
//
// Reference counts are plain integers. A row and every holder of it (row
// handles, rowops, trays) must stay within one execution context at a time;
// moving rows across goroutines goes through the handoff package, which
// rebuilds them on the receiving side instead of sharing the count.
//
//	rt, err := row.NewCompact([]row.Field{
//	    row.NewField("key", row.StringType()),
//	    row.NewField("value", row.Int64Type()),
//	})
//	r, err := rt.MakeRow([]row.Value{row.String("A"), row.Int64(1)})
//	defer r.Release()
package row
