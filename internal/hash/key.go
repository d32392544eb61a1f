package hash

import "github.com/cespare/xxhash/v2"

// Sum64 returns the 64-bit xxhash of data.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// KeyHasher accumulates the hash of a multi-part key without
// concatenating the parts first.
type KeyHasher struct {
	d *xxhash.Digest
}

// NewKeyHasher returns an empty KeyHasher.
func NewKeyHasher() KeyHasher {
	return KeyHasher{d: xxhash.New()}
}

// Add mixes one key part into the hash. A present flag keeps a null part
// distinct from an empty one.
func (h KeyHasher) Add(part []byte, present bool) {
	var tag [1]byte
	if present {
		tag[0] = 1
	}
	_, _ = h.d.Write(tag[:])
	var n [4]byte
	l := uint32(len(part)) //nolint:gosec // key parts are row fields, bounded by uint32 offsets
	n[0], n[1], n[2], n[3] = byte(l), byte(l>>8), byte(l>>16), byte(l>>24)
	_, _ = h.d.Write(n[:])
	_, _ = h.d.Write(part)
}

// Sum64 returns the accumulated hash.
func (h KeyHasher) Sum64() uint64 {
	return h.d.Sum64()
}
