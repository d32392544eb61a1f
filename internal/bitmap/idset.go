package bitmap

import "github.com/RoaringBitmap/roaring/v2"

// IDSet is a set of 32-bit handle ids backed by a Roaring bitmap.
// It is not safe for concurrent use; a table owns its set exclusively.
type IDSet struct {
	rb *roaring.Bitmap
}

// NewIDSet creates a new empty set.
func NewIDSet() *IDSet {
	return &IDSet{
		rb: roaring.New(),
	}
}

// Add adds id to the set. It reports whether id was newly added.
func (s *IDSet) Add(id uint32) bool {
	return s.rb.CheckedAdd(id)
}

// Remove removes id from the set. It reports whether id was present.
func (s *IDSet) Remove(id uint32) bool {
	return s.rb.CheckedRemove(id)
}

// Contains checks if id is in the set.
func (s *IDSet) Contains(id uint32) bool {
	return s.rb.Contains(id)
}

// Cardinality returns the number of ids in the set.
func (s *IDSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}
