package segment

import (
	"context"
	"fmt"

	"github.com/hupe1980/segmend/blobstore"
	"github.com/hupe1980/segmend/codec"
	"github.com/hupe1980/segmend/internal/resource"
)

// Directory stores the index artifacts of one segment.
//
// Writes and deletes become durable no later than Flush for the same
// column. Implementations are safe for concurrent use by goroutines that
// work on different columns.
type Directory interface {
	// Version returns the on-disk layout.
	Version() FormatVersion
	// Write stores an artifact, replacing any previous one.
	Write(ctx context.Context, column string, a Artifact, data []byte) error
	// Has reports whether the artifact exists, including unflushed writes.
	Has(ctx context.Context, column string, a Artifact) (bool, error)
	// Open returns a registered read handle.
	Open(ctx context.Context, column string, a Artifact) (*Handle, error)
	// Delete invalidates open handles and removes the artifact.
	// Deleting a missing artifact succeeds.
	Delete(ctx context.Context, column string, a Artifact) error
	// Flush makes pending changes of column durable.
	Flush(ctx context.Context, column string) error
	// Sync records that the metadata store references the flushed state.
	// Storage only earlier states used may be released.
	Sync(ctx context.Context) error
	// Restore returns the flushed state to the last Sync. Unflushed
	// changes are kept.
	Restore(ctx context.Context) error
	// Locations returns the durable locations of the column's artifacts.
	Locations(ctx context.Context, column string) ([]Location, error)
	// OpenHandles returns the number of live handles over column artifacts.
	OpenHandles(column string) int
	// Close invalidates all handles and drops unflushed changes.
	Close() error
}

// Option configures a Directory.
type Option func(*options)

type options struct {
	rc     *resource.Controller
	codec  codec.Codec
	pinned []string
}

// WithResourceController throttles artifact writes through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithCodec sets the codec of the V3 index map.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithPinned keeps the named blobs until the first Sync. Pass the blobs the
// last saved metadata references; after an interrupted commit they may no
// longer be current.
func WithPinned(blobs ...string) Option {
	return func(o *options) {
		o.pinned = append(o.pinned, blobs...)
	}
}

// OpenDirectory returns the Directory strategy for version.
func OpenDirectory(ctx context.Context, store blobstore.BlobStore, version FormatVersion, opts ...Option) (Directory, error) {
	o := options{codec: codec.Default}
	for _, opt := range opts {
		opt(&o)
	}

	switch version {
	case V1:
		return newV1Directory(store, o), nil
	case V3:
		return openV3Directory(ctx, store, o)
	default:
		return nil, fmt.Errorf("segment: unsupported format version %d", uint8(version))
	}
}

// writeBlob streams data into a new blob through the IO budget.
func writeBlob(ctx context.Context, store blobstore.BlobStore, rc *resource.Controller, name string, chunks ...[]byte) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	rw := resource.NewRateLimitedWriter(ctx, w, rc)
	for _, c := range chunks {
		if _, err := rw.Write(c); err != nil {
			_ = blobstore.Abort(w)
			return err
		}
	}
	return w.Close()
}
