package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/internal/segment"
)

// keepManifests is the number of manifest generations retained after a
// commit: the new one and its predecessor.
const keepManifests = 2

// committer serializes descriptor writes of a segment. Every commit flushes
// the column's artifacts, records their locations and saves a new manifest
// generation.
type committer struct {
	mu     sync.Mutex
	store  *manifest.Store
	dir    segment.Directory
	m      *manifest.Manifest
	logger *slog.Logger
}

func newCommitter(store *manifest.Store, dir segment.Directory, m *manifest.Manifest, logger *slog.Logger) *committer {
	return &committer{store: store, dir: dir, m: m.Clone(), logger: logger}
}

// manifest returns a copy of the last committed manifest.
func (c *committer) manifest() *manifest.Manifest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.Clone()
}

// commit makes the column's artifacts durable and writes desc. If the
// manifest cannot be saved the directory is restored to the state the last
// saved manifest references.
func (c *committer) commit(ctx context.Context, desc manifest.ColumnDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dir.Flush(ctx, desc.Name); err != nil {
		return err
	}
	locs, err := c.dir.Locations(ctx, desc.Name)
	if err != nil {
		return c.restoreLocked(ctx, err)
	}
	desc.Artifacts = locs

	next := c.m.Clone()
	next.SetColumn(desc)
	if _, err := c.refresh(ctx, next, desc.Name); err != nil {
		return c.restoreLocked(ctx, err)
	}
	if err := c.saveLocked(ctx, next); err != nil {
		return c.restoreLocked(ctx, err)
	}
	return nil
}

// drop makes pending deletes of column durable and removes its descriptor.
// Nothing is saved when neither the descriptor nor any recorded location
// changed.
func (c *committer) drop(ctx context.Context, column string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dir.Flush(ctx, column); err != nil {
		return err
	}

	next := c.m.Clone()
	removed := next.RemoveColumn(column)
	moved, err := c.refresh(ctx, next, column)
	if err != nil {
		return c.restoreLocked(ctx, err)
	}
	if !removed && !moved {
		// No descriptor references the flushed state's artifacts.
		c.syncLocked(ctx, c.m)
		return nil
	}
	if err := c.saveLocked(ctx, next); err != nil {
		return c.restoreLocked(ctx, err)
	}
	return nil
}

// discard deletes artifacts of column and makes the deletion durable. It
// undoes a build that was never committed.
func (c *committer) discard(ctx context.Context, column string, artifacts []segment.Artifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, a := range artifacts {
		if err := c.dir.Delete(ctx, column, a); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.dir.Flush(ctx, column); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// refresh re-reads artifact locations of every column except skip. Flushing
// a packed container moves the artifacts of all columns.
func (c *committer) refresh(ctx context.Context, m *manifest.Manifest, skip string) (bool, error) {
	if c.dir.Version() != segment.V3 {
		return false, nil
	}
	changed := false
	for i := range m.Columns {
		col := &m.Columns[i]
		if col.Name == skip {
			continue
		}
		locs, err := c.dir.Locations(ctx, col.Name)
		if err != nil {
			return false, err
		}
		if !slices.Equal(locs, col.Artifacts) {
			col.Artifacts = locs
			changed = true
		}
	}
	return changed, nil
}

func (c *committer) saveLocked(ctx context.Context, next *manifest.Manifest) error {
	if err := c.store.Save(ctx, next); err != nil {
		return err
	}
	c.m = next
	c.syncLocked(ctx, next)

	if err := c.store.Prune(ctx, keepManifests); err != nil {
		c.logger.WarnContext(ctx, "pruning old manifests failed",
			"segment", next.SegmentName,
			"manifest_id", next.ID,
			"error", err,
		)
	}
	return nil
}

// syncLocked releases artifact storage that m no longer references. A
// failure leaves garbage that the next sync or open collects.
func (c *committer) syncLocked(ctx context.Context, m *manifest.Manifest) {
	if err := c.dir.Sync(ctx); err != nil {
		c.logger.WarnContext(ctx, "releasing superseded artifacts failed",
			"segment", m.SegmentName,
			"manifest_id", m.ID,
			"error", err,
		)
	}
}

// restoreLocked returns the directory to the last saved manifest after cause.
func (c *committer) restoreLocked(ctx context.Context, cause error) error {
	if err := c.dir.Restore(ctx); err != nil {
		c.logger.ErrorContext(ctx, "restoring committed artifacts failed",
			"segment", c.m.SegmentName,
			"manifest_id", c.m.ID,
			"error", err,
		)
		return errors.Join(cause, err)
	}
	return cause
}
