// Package studyset provides an embeddable container for coordinate- and
// image-based neuroimaging meta-analysis datasets.
//
// A Dataset holds studies keyed by ID. Each study carries sparse metadata,
// statistical map references by image type and peak coordinates. Studies are
// selected by data availability with requirement expressions:
//
//	ds, err := studyset.Load("neurovault.json")
//	if err != nil {
//	    return err
//	}
//	studies, err := ds.Select("coordinates AND z")
//
// Requirements are disjunctions of conjunctions of clause names, optionally
// negated: "z AND sample_size OR beta AND NOT se". Clause names come from the
// dataset's vocabulary (see requirement.DefaultVocabulary); unknown names fail
// with *UnknownRequirementError.
//
// # Persistence
//
// Datasets round-trip through a versioned, checksummed binary snapshot.
// Compression is chosen by the file suffix:
//
//	err = ds.SaveSnapshot("neurovault.snap.zst")
//	ds, err = studyset.LoadSnapshot("neurovault.snap.zst")
//
// Snapshots can also be published to any blob store (local, S3, MinIO) and
// located through a catalog:
//
//	cat := catalog.New(store)
//	name, err := ds.Publish(ctx, cat, ".snap.zst")
//	latest, err := studyset.LoadLatest(ctx, cat)
//
// # Errors
//
// Failures are reported as *FormatError, *SchemaError,
// *UnknownRequirementError, *NotFoundError and *TypeMismatchError, each
// carrying the offending path, study or clause.
package studyset
