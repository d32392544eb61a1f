// Package agg provides the classic group calculators (MIN, MAX, SUM, AVG,
// COUNT) as a table.AggregatorType.
//
// The aggregator recomputes its group from the members on every change and
// emits rows made of the group key fields followed by the result. A changed
// result is published as a DELETE of the previous row followed by an INSERT
// of the new one; when the group collapses only the DELETE is sent.
package agg
