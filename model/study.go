package model

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/hupe1980/studyset/metadata"
)

// Coordinate is a peak location in millimetres.
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

// String returns a string representation of the Coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g, %g)", c.X, c.Y, c.Z)
}

// IsFinite reports whether all three components are finite numbers.
func (c Coordinate) IsFinite() bool {
	return isFinite(c.X) && isFinite(c.Y) && isFinite(c.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Study is one meta-analytic study/experiment.
type Study struct {
	ID string

	// Metadata is sparse; any field may be absent.
	Metadata metadata.Document

	// Images maps an image-type label (e.g. "z", "beta", "se") to a file path
	// or blob name.
	Images map[string]string

	// Coordinates are ordered peak locations.
	Coordinates []Coordinate
}

// Clone returns a deep copy of the study.
func (s *Study) Clone() *Study {
	if s == nil {
		return nil
	}
	return &Study{
		ID:          s.ID,
		Metadata:    s.Metadata.Clone(),
		Images:      maps.Clone(s.Images),
		Coordinates: slices.Clone(s.Coordinates),
	}
}

// IsEmpty reports whether the study carries no metadata, images or coordinates.
func (s *Study) IsEmpty() bool {
	return len(s.Metadata) == 0 && len(s.Images) == 0 && len(s.Coordinates) == 0
}

// HasCoordinates reports whether the study has at least one coordinate.
func (s *Study) HasCoordinates() bool {
	return len(s.Coordinates) > 0
}

// HasImage reports whether the study references an image of the given type.
func (s *Study) HasImage(label string) bool {
	return s.Images[label] != ""
}

// HasMetadata reports whether field is present with a non-null value.
func (s *Study) HasMetadata(field string) bool {
	v, ok := s.Metadata[field]
	return ok && v.Kind != metadata.KindNull && v.Kind != metadata.KindInvalid
}

// ImageLabels returns the image-type labels in ascending order.
func (s *Study) ImageLabels() []string {
	return slices.Sorted(maps.Keys(s.Images))
}

// Equal reports structural equality. Nil and empty collections are equal.
func (s *Study) Equal(o *Study) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.ID != o.ID {
		return false
	}
	if len(s.Images) != len(o.Images) || len(s.Coordinates) != len(o.Coordinates) {
		return false
	}
	for k, v := range s.Images {
		if ov, ok := o.Images[k]; !ok || ov != v {
			return false
		}
	}
	for i := range s.Coordinates {
		if !sameFloat(s.Coordinates[i].X, o.Coordinates[i].X) ||
			!sameFloat(s.Coordinates[i].Y, o.Coordinates[i].Y) ||
			!sameFloat(s.Coordinates[i].Z, o.Coordinates[i].Z) {
			return false
		}
	}
	return s.Metadata.Equal(o.Metadata)
}

func sameFloat(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
