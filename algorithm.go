package studyset

import (
	"maps"
	"slices"
)

// Algorithm is a meta-analysis method that declares the data it needs.
//
// Requirements returns a requirement expression evaluated by Dataset.Get,
// e.g. "z AND sample_size".
type Algorithm interface {
	Requirements() string
}

// DataRequirement is an Algorithm defined only by its requirement expression.
type DataRequirement string

// Requirements implements Algorithm.
func (r DataRequirement) Requirements() string { return string(r) }

// Requirements of common image- and coordinate-based meta-analysis estimators.
const (
	// Stouffers combines Z maps.
	Stouffers DataRequirement = "z"
	// WeightedStouffers combines Z maps weighted by sample size.
	WeightedStouffers DataRequirement = "z AND sample_size"
	// Fishers combines Z maps.
	Fishers DataRequirement = "z"
	// RFXGLM is a random-effects GLM over contrast (beta) maps.
	RFXGLM DataRequirement = "beta"
	// FFXGLM is a fixed-effects GLM over contrast maps and their standard errors.
	FFXGLM DataRequirement = "beta AND se"
	// MFXGLM is a mixed-effects GLM over contrast maps and their standard errors.
	MFXGLM DataRequirement = "beta AND se"
	// ALE is activation likelihood estimation over peak coordinates.
	ALE DataRequirement = "coordinates AND sample_size"
	// MKDA is multilevel kernel density analysis over peak coordinates.
	MKDA DataRequirement = "coordinates"
)

var algorithms = map[string]DataRequirement{
	"stouffers":          Stouffers,
	"weighted-stouffers": WeightedStouffers,
	"fishers":            Fishers,
	"rfx-glm":            RFXGLM,
	"ffx-glm":            FFXGLM,
	"mfx-glm":            MFXGLM,
	"ale":                ALE,
	"mkda":               MKDA,
}

// AlgorithmByName returns the estimator registered under name,
// e.g. "weighted-stouffers".
func AlgorithmByName(name string) (Algorithm, bool) {
	a, ok := algorithms[name]
	return a, ok
}

// AlgorithmNames returns the registered estimator names in sorted order.
func AlgorithmNames() []string {
	return slices.Sorted(maps.Keys(algorithms))
}
