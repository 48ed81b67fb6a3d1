// Package metadata provides typed study metadata and value predicates.
//
// Study metadata is sparse: sample size, cognitive paradigm, analysis level and
// similar descriptive fields. Values are small typed scalars so comparisons need
// no reflection and persist in a compact, stable binary form.
//
// # Metadata Types
//
//   - Null: metadata.Null()
//   - Int: metadata.Int(24)
//   - Float: metadata.Float(0.05)
//   - String: metadata.String("group")
//   - Bool: metadata.Bool(false)
//   - Array: metadata.Array([]metadata.Value{...})
//
// Example:
//
//	doc := metadata.Document{
//	    "sample_size":        metadata.Int(24),
//	    "analysis_level":     metadata.String("group"),
//	    "cognitive_paradigm": metadata.String("n-back"),
//	}
//
// Decoded JSON (map[string]any) is converted with DocumentFromAny.
//
// # Filter Operations
//
// Filters compare a field against a value; a FilterSet requires all of them:
//
//	fs := metadata.NewFilterSet(
//	    metadata.Eq("analysis_level", metadata.String("group")),
//	    metadata.Gte("sample_size", metadata.Int(20)),
//	)
//	ok := fs.Matches(doc)
//
// A filter on an absent field never matches.
package metadata
