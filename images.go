package studyset

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/studyset/blobstore"
	"github.com/hupe1980/studyset/internal/resource"
)

// OpenImage opens the image that study id references under label.
// Image paths are resolved as blob names in store. The caller must close
// the returned blob.
func (d *Dataset) OpenImage(ctx context.Context, store blobstore.BlobStore, id, label string) (blobstore.Blob, error) {
	s, ok := d.studies[id]
	if !ok {
		return nil, &NotFoundError{StudyID: id}
	}
	path, ok := s.Images[label]
	if !ok {
		return nil, fmt.Errorf("study %q has no %q image: %w", id, label, blobstore.ErrNotFound)
	}
	b, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open image %s of study %q: %w", path, id, err)
	}
	return b, nil
}

// VerifyOptions configures VerifyImages.
type VerifyOptions struct {
	// Concurrency is the number of concurrent existence checks. Defaults to 8.
	Concurrency int
	// RequestsPerSec limits the check rate. 0 means unlimited.
	RequestsPerSec float64
}

// MissingImage is an image reference that does not resolve.
type MissingImage struct {
	StudyID string
	Label   string
	Path    string
}

func (m MissingImage) String() string {
	return fmt.Sprintf("%s/%s: %s", m.StudyID, m.Label, m.Path)
}

// VerifyImages checks that every image reference resolves in store.
// Missing images, including paths that are not valid blob names, are
// returned sorted by study and label; any other store error aborts the check.
func (d *Dataset) VerifyImages(ctx context.Context, store blobstore.BlobStore, opts VerifyOptions) ([]MissingImage, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	rc := resource.NewController(resource.Config{
		MaxConcurrentRequests: int64(opts.Concurrency),
		RequestsPerSec:        opts.RequestsPerSec,
		Burst:                 opts.Concurrency,
	})

	var refs []MissingImage
	for _, id := range d.IDs() {
		s := d.studies[id]
		for _, label := range s.ImageLabels() {
			refs = append(refs, MissingImage{StudyID: id, Label: label, Path: s.Images[label]})
		}
	}

	var (
		mu      sync.Mutex
		missing []MissingImage
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		if err := rc.Acquire(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer rc.Release()

			ok, err := blobstore.Exists(gctx, store, ref.Path)
			if errors.Is(err, blobstore.ErrInvalidName) {
				ok, err = false, nil
			}
			if err != nil {
				return fmt.Errorf("check image %s of study %q: %w", ref.Path, ref.StudyID, err)
			}
			if !ok {
				mu.Lock()
				missing = append(missing, ref)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	slices.SortFunc(missing, func(a, b MissingImage) int {
		return cmp.Or(cmp.Compare(a.StudyID, b.StudyID), cmp.Compare(a.Label, b.Label))
	})
	d.opts.logger.LogVerify(ctx, len(refs), len(missing), err)
	if err != nil {
		return nil, err
	}
	return missing, nil
}
