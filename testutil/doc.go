// Package testutil provides testing utilities for studyset.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for random studies.
//
//	rng := testutil.NewRNG(seed)
//	studies := rng.Studies(100, testutil.StudyOptions{})
package testutil
