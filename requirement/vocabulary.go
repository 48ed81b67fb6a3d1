package requirement

import (
	"maps"
	"slices"
)

// Category says which part of a study a clause inspects.
// A name may belong to more than one category.
type Category uint8

const (
	// CategoryCoordinates checks for a non-empty coordinate list.
	CategoryCoordinates Category = 1 << iota
	// CategoryImage checks for a non-empty image path under the clause name.
	CategoryImage
	// CategoryMetadata checks for a present, non-null metadata field.
	CategoryMetadata
)

// Has reports whether c includes all bits of o.
func (c Category) Has(o Category) bool { return c&o == o }

// String returns the category names joined by "|".
func (c Category) String() string {
	var s string
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if c.Has(CategoryCoordinates) {
		add("coordinates")
	}
	if c.Has(CategoryImage) {
		add("image")
	}
	if c.Has(CategoryMetadata) {
		add("metadata")
	}
	if s == "" {
		return "none"
	}
	return s
}

// CoordinatesClause is the clause name satisfied by a non-empty coordinate list.
const CoordinatesClause = "coordinates"

// DefaultImageTypes are the statistical map labels known out of the box.
var DefaultImageTypes = []string{"z", "t", "f", "p", "beta", "se", "varcope", "con"}

// DefaultMetadataFields are the metadata fields known out of the box.
var DefaultMetadataFields = []string{
	"sample_size",
	"cognitive_paradigm",
	"analysis_level",
	"map_type",
	"space",
	"doi",
	"pmid",
	"collection_id",
	"contrast",
	"task",
}

// Vocabulary is the set of clause names a requirement may use.
//
// A Vocabulary is not safe for concurrent mutation. Parse only reads it.
type Vocabulary struct {
	names map[string]Category
}

// NewVocabulary returns a vocabulary that only knows the coordinates clause.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{names: map[string]Category{CoordinatesClause: CategoryCoordinates}}
}

// DefaultVocabulary returns a vocabulary with the default image types and
// metadata fields registered.
func DefaultVocabulary() *Vocabulary {
	v := NewVocabulary()
	v.AddImageTypes(DefaultImageTypes...)
	v.AddMetadataFields(DefaultMetadataFields...)
	return v
}

// AddImageTypes registers image-type labels.
func (v *Vocabulary) AddImageTypes(labels ...string) {
	v.add(CategoryImage, labels)
}

// AddMetadataFields registers metadata field names.
func (v *Vocabulary) AddMetadataFields(fields ...string) {
	v.add(CategoryMetadata, fields)
}

func (v *Vocabulary) add(c Category, names []string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		v.names[n] |= c
	}
}

// Lookup returns the categories registered for name.
func (v *Vocabulary) Lookup(name string) (Category, bool) {
	c, ok := v.names[name]
	return c, ok
}

// Names returns all registered clause names in ascending order.
func (v *Vocabulary) Names() []string {
	return slices.Sorted(maps.Keys(v.names))
}

// Clone returns an independent copy of v.
func (v *Vocabulary) Clone() *Vocabulary {
	return &Vocabulary{names: maps.Clone(v.names)}
}
