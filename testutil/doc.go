// Package testutil provides testing utilities for cepgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, a standard row schema and generators
// of insert/delete workloads.
//
// # Random Workloads
//
//	rng := testutil.NewRNG(seed)
//	for _, step := range rng.Workload(1000, 16) {
//		r := testutil.MakeRow(t, rt, step.Key, step.Sub, step.Val)
//		...
//	}
//
// Keys are drawn from a Zipfian distribution so that a few groups are hot,
// as they are in real event streams.
package testutil
