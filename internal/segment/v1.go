package segment

import (
	"context"
	"errors"

	"github.com/hupe1980/segmend/blobstore"
)

// v1Directory keeps one blob per artifact, named <column><suffix>.
type v1Directory struct {
	store   blobstore.BlobStore
	opts    options
	handles *registry
}

func newV1Directory(store blobstore.BlobStore, o options) *v1Directory {
	return &v1Directory{store: store, opts: o, handles: newRegistry()}
}

func (d *v1Directory) Version() FormatVersion { return V1 }

func (d *v1Directory) Write(ctx context.Context, column string, a Artifact, data []byte) error {
	if err := d.handles.invalidate(column, a); err != nil {
		return err
	}
	return writeBlob(ctx, d.store, d.opts.rc, BlobName(column, a), data)
}

func (d *v1Directory) Has(ctx context.Context, column string, a Artifact) (bool, error) {
	return blobstore.Exists(ctx, d.store, BlobName(column, a))
}

func (d *v1Directory) Open(ctx context.Context, column string, a Artifact) (*Handle, error) {
	name := BlobName(column, a)
	b, err := d.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	loc := Location{Artifact: a, Blob: name, Size: b.Size()}
	return newHandle(d.handles, column, loc, b), nil
}

func (d *v1Directory) Delete(ctx context.Context, column string, a Artifact) error {
	if err := d.handles.invalidate(column, a); err != nil {
		return err
	}
	return d.store.Delete(ctx, BlobName(column, a))
}

// Flush is a no-op: every write is durable when Write returns.
func (d *v1Directory) Flush(context.Context, string) error { return nil }

// Sync and Restore are no-ops: each column owns its files, so a failed
// commit is undone by deleting that column's artifacts.
func (d *v1Directory) Sync(context.Context) error { return nil }

func (d *v1Directory) Restore(context.Context) error { return nil }

func (d *v1Directory) Locations(ctx context.Context, column string) ([]Location, error) {
	names, err := d.store.List(ctx, column)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	var locs []Location
	for _, a := range Artifacts {
		name := BlobName(column, a)
		if !present[name] {
			continue
		}
		b, err := d.store.Open(ctx, name)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				continue
			}
			return nil, err
		}
		locs = append(locs, Location{Artifact: a, Blob: name, Size: b.Size()})
		if err := b.Close(); err != nil {
			return nil, err
		}
	}
	return locs, nil
}

func (d *v1Directory) OpenHandles(column string) int { return d.handles.count(column) }

func (d *v1Directory) Close() error { return d.handles.invalidateAll() }
