// Package availability maintains an inverted index from data-availability
// clauses to the studies that satisfy them.
package availability

import (
	"github.com/hupe1980/studyset/model"
	"github.com/hupe1980/studyset/requirement"
)

// Index maps availability keys to sets of study ordinals.
//
// Ordinals are assigned by the caller and must be stable for the lifetime of a
// study in the index. Index is not safe for concurrent mutation.
type Index struct {
	all    *Set
	coords *Set
	images map[string]*Set
	meta   map[string]*Set
}

// New creates an empty index.
func New() *Index {
	return &Index{
		all:    NewSet(),
		coords: NewSet(),
		images: make(map[string]*Set),
		meta:   make(map[string]*Set),
	}
}

// Add indexes s under ord.
func (ix *Index) Add(ord uint32, s *model.Study) {
	ix.all.Add(ord)
	if s.HasCoordinates() {
		ix.coords.Add(ord)
	}
	for label := range s.Images {
		if s.HasImage(label) {
			setFor(ix.images, label).Add(ord)
		}
	}
	for field := range s.Metadata {
		if s.HasMetadata(field) {
			setFor(ix.meta, field).Add(ord)
		}
	}
}

// Remove drops ord from every set. s must be the study that was added under ord.
func (ix *Index) Remove(ord uint32, s *model.Study) {
	ix.all.Remove(ord)
	ix.coords.Remove(ord)
	for label := range s.Images {
		removeFrom(ix.images, label, ord)
	}
	for field := range s.Metadata {
		removeFrom(ix.meta, field, ord)
	}
}

func setFor(m map[string]*Set, key string) *Set {
	s, ok := m[key]
	if !ok {
		s = NewSet()
		m[key] = s
	}
	return s
}

func removeFrom(m map[string]*Set, key string, ord uint32) {
	s, ok := m[key]
	if !ok {
		return
	}
	s.Remove(ord)
	if s.IsEmpty() {
		delete(m, key)
	}
}

// Len returns the number of indexed studies.
func (ix *Index) Len() int {
	return int(ix.all.Cardinality())
}

// All returns a copy of the set of every indexed ordinal.
func (ix *Index) All() *Set {
	return ix.all.Clone()
}

// Available returns the ordinals whose studies carry the data named by c,
// ignoring negation. The result is owned by the caller.
func (ix *Index) Available(c requirement.Clause) *Set {
	out := NewSet()
	if c.Category.Has(requirement.CategoryCoordinates) {
		out.Or(ix.coords)
	}
	if c.Category.Has(requirement.CategoryImage) {
		if s, ok := ix.images[c.Name]; ok {
			out.Or(s)
		}
	}
	if c.Category.Has(requirement.CategoryMetadata) {
		if s, ok := ix.meta[c.Name]; ok {
			out.Or(s)
		}
	}
	return out
}

// Evaluate returns the ordinals of studies satisfying r.
func (ix *Index) Evaluate(r *requirement.Requirement) *Set {
	out := NewSet()
	for _, term := range r.Terms() {
		acc := ix.all.Clone()
		for _, c := range term {
			avail := ix.Available(c)
			if c.Negated {
				acc.AndNot(avail)
			} else {
				acc.And(avail)
			}
			if acc.IsEmpty() {
				break
			}
		}
		out.Or(acc)
	}
	return out
}

// Stats reports how many studies carry each kind of data.
type Stats struct {
	Studies     int
	Coordinates int
	Images      map[string]int
	Metadata    map[string]int
}

// Stats returns per-key cardinalities.
func (ix *Index) Stats() Stats {
	st := Stats{
		Studies:     ix.Len(),
		Coordinates: int(ix.coords.Cardinality()),
		Images:      make(map[string]int, len(ix.images)),
		Metadata:    make(map[string]int, len(ix.meta)),
	}
	for k, s := range ix.images {
		st.Images[k] = int(s.Cardinality())
	}
	for k, s := range ix.meta {
		st.Metadata[k] = int(s.Cardinality())
	}
	return st
}
