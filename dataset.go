package studyset

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/studyset/internal/availability"
	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
	"github.com/hupe1980/studyset/requirement"
)

// Coordinate is a peak location in the dataset's reference space.
type Coordinate = model.Coordinate

// Study is one meta-analytic study/experiment.
type Study = model.Study

// Dataset is an in-memory collection of studies keyed by ID.
//
// A Dataset is not safe for concurrent mutation. Concurrent reads are safe
// while no Add or Remove is in progress.
type Dataset struct {
	opts  options
	space string
	vocab *requirement.Vocabulary

	studies map[string]*model.Study
	ords    map[string]uint32
	slots   []*model.Study // ordinal -> study, nil for free slots
	free    []uint32
	index   *availability.Index
}

// New creates an empty dataset.
func New(opts ...Option) *Dataset {
	o := applyOptions(opts)
	return newDataset(o)
}

func newDataset(o options) *Dataset {
	return &Dataset{
		opts:    o,
		space:   o.space,
		vocab:   o.vocab(),
		studies: make(map[string]*model.Study),
		ords:    make(map[string]uint32),
		index:   availability.New(),
	}
}

// Len returns the number of studies.
func (d *Dataset) Len() int {
	return len(d.studies)
}

// Space returns the dataset's reference space.
func (d *Dataset) Space() string {
	return d.space
}

// Vocabulary returns a copy of the requirement vocabulary.
func (d *Dataset) Vocabulary() *requirement.Vocabulary {
	return d.vocab.Clone()
}

// IDs returns all study IDs in ascending order.
func (d *Dataset) IDs() []string {
	return slices.Sorted(maps.Keys(d.studies))
}

// Studies returns clones of all studies in ascending ID order.
func (d *Dataset) Studies() []*model.Study {
	out := make([]*model.Study, 0, len(d.studies))
	for _, id := range d.IDs() {
		out = append(out, d.studies[id].Clone())
	}
	return out
}

// Equal reports whether both datasets share a space and hold structurally
// equal studies.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.space != o.space || len(d.studies) != len(o.studies) {
		return false
	}
	for id, s := range d.studies {
		if !s.Equal(o.studies[id]) {
			return false
		}
	}
	return true
}

// Add validates and inserts studies. Either all studies are admitted or none.
// IDs starting with "_" are reserved for non-study keys of the JSON format.
func (d *Dataset) Add(studies ...*model.Study) error {
	err := d.add(studies)
	d.opts.metricsCollector.RecordMutation(len(studies), err)
	d.opts.logger.LogMutation(context.Background(), "add", len(studies), err)
	return err
}

func (d *Dataset) add(studies []*model.Study) error {
	seen := make(map[string]struct{}, len(studies))
	for _, s := range studies {
		if err := d.validate(s); err != nil {
			return err
		}
		if _, ok := d.studies[s.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStudy, s.ID)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStudy, s.ID)
		}
		seen[s.ID] = struct{}{}
	}

	for _, s := range studies {
		d.insert(s.Clone())
	}
	return nil
}

func (d *Dataset) insert(s *model.Study) {
	var ord uint32
	if n := len(d.free); n > 0 {
		ord = d.free[n-1]
		d.free = d.free[:n-1]
		d.slots[ord] = s
	} else {
		ord = uint32(len(d.slots))
		d.slots = append(d.slots, s)
	}
	d.studies[s.ID] = s
	d.ords[s.ID] = ord
	d.index.Add(ord, s)
}

// Remove deletes the study with the given ID.
func (d *Dataset) Remove(id string) error {
	err := d.remove(id)
	d.opts.metricsCollector.RecordMutation(1, err)
	d.opts.logger.LogMutation(context.Background(), "remove", 1, err)
	return err
}

func (d *Dataset) remove(id string) error {
	s, ok := d.studies[id]
	if !ok {
		return &NotFoundError{StudyID: id}
	}
	ord := d.ords[id]
	d.index.Remove(ord, s)
	d.slots[ord] = nil
	d.free = append(d.free, ord)
	delete(d.studies, id)
	delete(d.ords, id)
	return nil
}

// validate checks a study before it is admitted.
func (d *Dataset) validate(s *model.Study) error {
	if s == nil {
		return &SchemaError{Reason: "study is nil"}
	}
	if s.ID == "" {
		return &SchemaError{Field: "id", Reason: "must not be empty"}
	}
	if strings.HasPrefix(s.ID, reservedPrefix) {
		return &SchemaError{StudyID: s.ID, Field: "id", Reason: "must not start with " + strconv.Quote(reservedPrefix)}
	}
	for _, label := range s.ImageLabels() {
		if label == "" {
			return &SchemaError{StudyID: s.ID, Field: "images", Reason: "image type must not be empty"}
		}
		if s.Images[label] == "" {
			return &SchemaError{StudyID: s.ID, Field: "images." + label, Reason: "path must not be empty"}
		}
	}
	for i, c := range s.Coordinates {
		if !c.IsFinite() {
			return &SchemaError{
				StudyID: s.ID,
				Field:   fmt.Sprintf("coordinates[%d]", i),
				Reason:  "coordinate " + c.String() + " is not finite",
			}
		}
	}
	for _, k := range s.Metadata.Keys() {
		if k == "" {
			return &SchemaError{StudyID: s.ID, Field: "metadata", Reason: "field name must not be empty"}
		}
		if reason := invalidValue(s.Metadata[k]); reason != "" {
			return &SchemaError{StudyID: s.ID, Field: "metadata." + k, Reason: reason}
		}
	}
	if err := d.opts.schema.Validate(s.Metadata); err != nil {
		se := translateError(err).(*SchemaError)
		se.StudyID = s.ID
		se.Field = "metadata." + se.Field
		return se
	}
	return nil
}

// invalidValue explains why v cannot be stored, or returns "".
func invalidValue(v metadata.Value) string {
	switch v.Kind {
	case metadata.KindNull, metadata.KindInt, metadata.KindFloat, metadata.KindString, metadata.KindBool:
		return ""
	case metadata.KindArray:
		for i, e := range v.A {
			if e.Kind == metadata.KindArray {
				return fmt.Sprintf("element %d: nested arrays are not supported", i)
			}
			if reason := invalidValue(e); reason != "" {
				return fmt.Sprintf("element %d: %s", i, reason)
			}
		}
		return ""
	case metadata.KindInvalid:
		return "value is absent"
	default:
		return "unknown value kind " + v.Kind.String()
	}
}

func (d *Dataset) parse(text string) (*requirement.Requirement, error) {
	r, err := requirement.Parse(text, d.vocab)
	if err != nil {
		return nil, translateError(err)
	}
	return r, nil
}

// HasData reports whether study satisfies the requirement expression.
//
// The expression is a disjunction of conjunctions of clauses, e.g.
// "coordinates AND z" or "z AND sample_size OR beta AND NOT se".
// Unknown clause names fail with *UnknownRequirementError.
func (d *Dataset) HasData(study *model.Study, req string) (bool, error) {
	r, err := d.parse(req)
	if err != nil {
		return false, err
	}
	return r.Matches(study), nil
}

// Select returns clones of the studies satisfying req in ascending ID order.
// It returns an empty slice, not an error, when nothing matches.
func (d *Dataset) Select(req string) ([]*model.Study, error) {
	return d.SelectWhere(req, nil)
}

// SelectIDs is like Select but returns only the IDs.
func (d *Dataset) SelectIDs(req string) ([]string, error) {
	studies, err := d.SelectWhere(req, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(studies))
	for i, s := range studies {
		ids[i] = s.ID
	}
	return ids, nil
}

// SelectWhere returns clones of the studies satisfying req whose metadata
// also matches filter. An empty req selects every study; a nil filter
// matches every study.
func (d *Dataset) SelectWhere(req string, filter *metadata.FilterSet) ([]*model.Study, error) {
	start := time.Now()
	out, err := d.selectWhere(req, filter)
	d.opts.metricsCollector.RecordSelect(len(out), time.Since(start), err)
	d.opts.logger.LogSelect(context.Background(), req, len(out), err)
	return out, err
}

func (d *Dataset) selectWhere(req string, filter *metadata.FilterSet) ([]*model.Study, error) {
	var set *availability.Set
	if strings.TrimSpace(req) == "" {
		set = d.index.All()
	} else {
		r, err := d.parse(req)
		if err != nil {
			return nil, err
		}
		set = d.index.Evaluate(r)
	}

	out := make([]*model.Study, 0, set.Cardinality())
	for ord := range set.All() {
		s := d.slots[ord]
		if !filter.Matches(s.Metadata) {
			continue
		}
		out = append(out, s.Clone())
	}
	slices.SortFunc(out, func(a, b *model.Study) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Get selects the studies that provide the data alg requires.
//
// A nil alg selects every study. Free-text search is not supported yet and
// fails with ErrNotImplemented.
func (d *Dataset) Get(search string, alg Algorithm) ([]*model.Study, error) {
	if search != "" {
		return nil, fmt.Errorf("search %q: %w", search, ErrNotImplemented)
	}
	if alg == nil {
		return d.Select("")
	}
	return d.Select(alg.Requirements())
}

// Study returns a copy of the study with the given ID.
func (d *Dataset) Study(id string) (*model.Study, error) {
	s, ok := d.studies[id]
	if !ok {
		return nil, &NotFoundError{StudyID: id}
	}
	return s.Clone(), nil
}

// GetMetadata looks up a single metadata field. It reports false when the
// study or the field does not exist; a null value is returned with true.
func (d *Dataset) GetMetadata(id, field string) (metadata.Value, bool) {
	s, ok := d.studies[id]
	if !ok {
		return metadata.Value{}, false
	}
	v, ok := s.Metadata[field]
	return v, ok
}

// Metadata returns a copy of the study's metadata.
func (d *Dataset) Metadata(id string) (metadata.Document, error) {
	s, ok := d.studies[id]
	if !ok {
		return nil, &NotFoundError{StudyID: id}
	}
	if s.Metadata == nil {
		return metadata.Document{}, nil
	}
	return s.Metadata.Clone(), nil
}

// GetImages returns a copy of the study's image references.
func (d *Dataset) GetImages(id string) (map[string]string, error) {
	s, ok := d.studies[id]
	if !ok {
		return nil, &NotFoundError{StudyID: id}
	}
	out := make(map[string]string, len(s.Images))
	maps.Copy(out, s.Images)
	return out, nil
}

// GetCoordinates returns a copy of the study's coordinates.
func (d *Dataset) GetCoordinates(id string) ([]model.Coordinate, error) {
	s, ok := d.studies[id]
	if !ok {
		return nil, &NotFoundError{StudyID: id}
	}
	return append([]model.Coordinate{}, s.Coordinates...), nil
}

// Stats reports how many studies carry each kind of data.
type Stats struct {
	Studies     int
	Coordinates int
	Images      map[string]int
	Metadata    map[string]int
}

// Stats returns per-clause availability counts.
func (d *Dataset) Stats() Stats {
	st := d.index.Stats()
	return Stats{
		Studies:     st.Studies,
		Coordinates: st.Coordinates,
		Images:      st.Images,
		Metadata:    st.Metadata,
	}
}
