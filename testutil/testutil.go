package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/hupe1980/cepgo/row"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	// Inverse transform sampling over the normalized harmonic weights.
	var norm float64
	for k := 1; k <= n; k++ {
		norm += 1 / math.Pow(float64(k), s)
	}
	u := r.rand.Float64() * norm
	var acc float64
	for k := 1; k <= n; k++ {
		acc += 1 / math.Pow(float64(k), s)
		if u < acc {
			return k - 1
		}
	}
	return n - 1
}

// Key returns one of n group keys, skewed towards the first ones.
func (r *RNG) Key(n int) string {
	return fmt.Sprintf("k%03d", r.Zipf(n, 1.2))
}

// Step is one change of a generated workload.
type Step struct {
	Insert bool
	Key    string
	Sub    string
	Val    int64
}

// Workload generates n steps over the given number of keys. Deletes always
// name a row inserted earlier and not yet deleted, so replaying the
// workload never deletes a missing row.
func (r *RNG) Workload(n, keys int) []Step {
	type ident struct{ key, sub string }
	var live []Step
	seen := make(map[ident]bool)
	steps := make([]Step, 0, n)
	for len(steps) < n {
		if len(live) > 0 && r.Intn(3) == 0 {
			i := r.Intn(len(live))
			s := live[i]
			live = append(live[:i], live[i+1:]...)
			delete(seen, ident{s.Key, s.Sub})
			s.Insert = false
			steps = append(steps, s)
			continue
		}
		s := Step{
			Insert: true,
			Key:    r.Key(keys),
			Sub:    fmt.Sprintf("s%d", r.Intn(4)),
			Val:    r.Int63n(100),
		}
		id := ident{s.Key, s.Sub}
		if seen[id] {
			continue
		}
		seen[id] = true
		live = append(live, s)
		steps = append(steps, s)
	}
	return steps
}

// Schema returns the row type used by most tests:
// key string, sub string, val int64.
func Schema() *row.Compact {
	return row.MustCompact(
		row.NewField("key", row.StringType()),
		row.NewField("sub", row.StringType()),
		row.NewField("val", row.Int64Type()),
	)
}

// MakeRow builds a row of a Schema compatible type, failing the test on error.
func MakeRow(tb testing.TB, rt row.Type, key, sub string, val int64) *row.Row {
	tb.Helper()
	r, err := rt.MakeRow([]row.Value{row.String(key), row.String(sub), row.Int64(val)})
	if err != nil {
		tb.Fatalf("make row: %v", err)
	}
	return r
}
