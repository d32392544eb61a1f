package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	data := []byte("hello tray")
	h := NewCRC32C()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])
	assert.Equal(t, CRC32C(data), h.Sum32())
}

func TestKeyHasher(t *testing.T) {
	sum := func(parts ...string) uint64 {
		h := NewKeyHasher()
		for _, p := range parts {
			h.Add([]byte(p), true)
		}
		return h.Sum64()
	}

	assert.Equal(t, sum("a", "bc"), sum("a", "bc"))
	assert.NotEqual(t, sum("ab", "c"), sum("a", "bc"))

	null := NewKeyHasher()
	null.Add(nil, false)
	empty := NewKeyHasher()
	empty.Add(nil, true)
	assert.NotEqual(t, null.Sum64(), empty.Sum64())
}

func TestSum64(t *testing.T) {
	assert.Equal(t, Sum64([]byte("x")), Sum64([]byte("x")))
	assert.NotEqual(t, Sum64([]byte("x")), Sum64([]byte("y")))
}
