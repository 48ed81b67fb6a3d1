// Package model defines the core record types shared by studyset packages.
//
// # Identity
//
//   - Study.ID: user-facing, unique within a dataset (string)
//
// # Data Types
//
//   - Study: one reported experiment (metadata, image references, peak coordinates)
//   - Coordinate: a 3D peak location in the dataset's reference space
//
// Studies are plain values. Containers hand out clones so callers can never
// mutate indexed state behind the container's back:
//
//	s := &model.Study{
//	    ID:          "S1",
//	    Metadata:    metadata.Document{"sample_size": metadata.Int(24)},
//	    Images:      map[string]string{"z": "s1_z.nii.gz"},
//	    Coordinates: []model.Coordinate{{X: -42, Y: 18, Z: 24}},
//	}
//	c := s.Clone()
package model
