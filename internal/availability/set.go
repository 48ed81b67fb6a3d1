package availability

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a set of study ordinals backed by a 32-bit roaring bitmap.
type Set struct {
	rb *roaring.Bitmap
}

// NewSet creates a new empty set.
func NewSet() *Set {
	return &Set{rb: roaring.New()}
}

// Add adds an ordinal to the set.
func (s *Set) Add(ord uint32) {
	s.rb.Add(ord)
}

// Remove removes an ordinal from the set.
func (s *Set) Remove(ord uint32) {
	s.rb.Remove(ord)
}

// Contains checks if an ordinal is in the set.
func (s *Set) Contains(ord uint32) bool {
	return s.rb.Contains(ord)
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of elements in the set.
func (s *Set) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{rb: s.rb.Clone()}
}

// And computes the intersection in place.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Or computes the union in place.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// AndNot removes every element of other in place.
func (s *Set) AndNot(other *Set) {
	s.rb.AndNot(other.rb)
}

// All iterates the ordinals in ascending order.
func (s *Set) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ToArray returns the ordinals in ascending order.
func (s *Set) ToArray() []uint32 {
	return s.rb.ToArray()
}

// SizeInBytes returns the serialized size of the underlying bitmap.
func (s *Set) SizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}
