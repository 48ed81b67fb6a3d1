package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
)

// Object is a value stored in a snapshot.
type Object interface {
	Kind() Kind
}

// Dataset is the snapshot form of a study dataset.
type Dataset struct {
	// ID identifies this snapshot. A zero ID is replaced by a fresh one on encode.
	ID        uuid.UUID
	CreatedAt time.Time
	Space     string
	// Studies are encoded in the order given; callers sort by ID for
	// deterministic output.
	Studies []*model.Study
}

// Kind implements Object.
func (*Dataset) Kind() Kind { return KindDataset }

// Document is a bare metadata mapping.
type Document struct {
	Fields metadata.Document
}

// Kind implements Object.
func (*Document) Kind() Kind { return KindDocument }
