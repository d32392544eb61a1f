// Package bitmap provides compressed id sets.
//
// IDSet wraps a Roaring bitmap. Tables use it to track which row handle ids
// are live, which answers Table.Contains without touching the indexes and
// lets tests check that every handle was destroyed.
//
// # Example Usage
//
//	live := bitmap.NewIDSet()
//	live.Add(rh.ID())
//	...
//	live.Remove(rh.ID())
//	if live.Cardinality() != 0 {
//	    // leaked handles
//	}
package bitmap
