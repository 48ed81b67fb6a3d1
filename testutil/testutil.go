package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
	"github.com/hupe1980/studyset/requirement"
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

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Uniform returns a pseudo-random number in [lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Chance returns true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// StudyOptions controls random study generation.
// Zero probabilities default to 0.5.
type StudyOptions struct {
	CoordinateProb float64
	ImageProb      float64
	MetadataProb   float64
	MaxCoordinates int
}

func (o StudyOptions) withDefaults() StudyOptions {
	if o.CoordinateProb == 0 {
		o.CoordinateProb = 0.5
	}
	if o.ImageProb == 0 {
		o.ImageProb = 0.5
	}
	if o.MetadataProb == 0 {
		o.MetadataProb = 0.5
	}
	if o.MaxCoordinates <= 0 {
		o.MaxCoordinates = 8
	}
	return o
}

var (
	analysisLevels = []string{"group", "single-subject", "meta-analysis"}
	paradigms      = []string{"n-back task", "stop-signal task", "emotion processing fMRI task paradigm"}
)

// Coordinate returns a random point inside the MNI152 bounding box.
func (r *RNG) Coordinate() model.Coordinate {
	return model.Coordinate{
		X: r.Uniform(-90, 91),
		Y: r.Uniform(-126, 91),
		Z: r.Uniform(-72, 109),
	}
}

// Study returns a random study with the given ID.
func (r *RNG) Study(id string, opts StudyOptions) *model.Study {
	opts = opts.withDefaults()
	s := &model.Study{ID: id}

	if r.Chance(opts.CoordinateProb) {
		n := 1 + r.Intn(opts.MaxCoordinates)
		s.Coordinates = make([]model.Coordinate, n)
		for i := range s.Coordinates {
			s.Coordinates[i] = r.Coordinate()
		}
	}

	for _, label := range requirement.DefaultImageTypes {
		if r.Chance(opts.ImageProb / 2) {
			if s.Images == nil {
				s.Images = make(map[string]string)
			}
			s.Images[label] = fmt.Sprintf("maps/%s/%s.nii.gz", id, label)
		}
	}

	if r.Chance(opts.MetadataProb) {
		s.Metadata = metadata.Document{
			"analysis_level": metadata.String(analysisLevels[r.Intn(len(analysisLevels))]),
		}
		if r.Chance(0.7) {
			s.Metadata["sample_size"] = metadata.Int(int64(8 + r.Intn(120)))
		}
		if r.Chance(0.5) {
			s.Metadata["cognitive_paradigm"] = metadata.String(paradigms[r.Intn(len(paradigms))])
		}
		if r.Chance(0.2) {
			s.Metadata["doi"] = metadata.Null()
		}
	}
	return s
}

// Studies returns n random studies with IDs "study-00000", "study-00001", ...
func (r *RNG) Studies(n int, opts StudyOptions) []*model.Study {
	out := make([]*model.Study, n)
	for i := range out {
		out[i] = r.Study(fmt.Sprintf("study-%05d", i), opts)
	}
	return out
}

// ScenarioStudies returns two fixed studies: S1 with one coordinate and a z
// map, S2 with only a beta map.
func ScenarioStudies() []*model.Study {
	return []*model.Study{
		{
			ID:          "S1",
			Coordinates: []model.Coordinate{{X: 1, Y: 2, Z: 3}},
			Images:      map[string]string{"z": "s1_z.nii"},
		},
		{
			ID:          "S2",
			Coordinates: []model.Coordinate{},
			Images:      map[string]string{"beta": "s2_beta.nii"},
		},
	}
}
