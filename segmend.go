package segmend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/segmend/blobstore"
	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/internal/reconcile"
	"github.com/hupe1980/segmend/internal/resource"
	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
)

// Action is the reconciliation action for one column.
type Action = reconcile.Action

const (
	ActionNoOp   = reconcile.ActionNoOp
	ActionAdd    = reconcile.ActionAdd
	ActionUpdate = reconcile.ActionUpdate
	ActionRemove = reconcile.ActionRemove
)

// ParseAction parses ADD, UPDATE, REMOVE or NO_OP.
func ParseAction(s string) (Action, error) { return reconcile.ParseAction(s) }

type (
	// Decision is the classified action of one column.
	Decision = reconcile.Decision
	// Plan is the ordered set of decisions of a pass.
	Plan = reconcile.Plan
	// Report summarizes a finished pass.
	Report = reconcile.Report
	// ColumnResult is the outcome of one column within a pass.
	ColumnResult = reconcile.ColumnResult
	// Manifest is a committed snapshot of segment metadata.
	Manifest = manifest.Manifest
	// ColumnDescriptor is the committed metadata of one column.
	ColumnDescriptor = manifest.ColumnDescriptor
	// FormatVersion selects the on-disk artifact layout.
	FormatVersion = segment.FormatVersion
)

const (
	// V1 stores one blob per artifact.
	V1 = segment.V1
	// V3 packs all artifacts into one container plus an index map.
	V3 = segment.V3
)

// Reconciler brings the default columns of one segment in line with a
// schema. Passes on one Reconciler are serialized.
type Reconciler struct {
	mu     sync.Mutex
	opts   options
	store  blobstore.BlobStore
	mstore *manifest.Store
	dir    segment.Directory
	rc     *resource.Controller
	m      *manifest.Manifest
	closed bool
}

// Open loads the segment held by store and selects the artifact layout
// from its format version. It returns ErrNotFound for an empty store.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Reconciler, error) {
	o := applyOptions(optFns)
	mstore := newManifestStore(store, o)

	m, err := mstore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open segment: %w", err)
	}

	rc := resource.NewController(resource.Config{
		MaxWorkers:         int64(o.parallelism),
		IOLimitBytesPerSec: o.ioLimit,
		MemoryLimitBytes:   o.memoryLimit,
	})
	dir, err := segment.OpenDirectory(ctx, store, m.FormatVersion,
		segment.WithResourceController(rc),
		segment.WithCodec(o.codec),
		segment.WithPinned(m.Blobs()...),
	)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", m.SegmentName, err)
	}

	o.logger.DebugContext(ctx, "segment opened",
		"segment", m.SegmentName,
		"format_version", m.FormatVersion.String(),
		"total_docs", m.TotalDocs,
		"columns", len(m.Columns),
	)
	return &Reconciler{
		opts:   o,
		store:  store,
		mstore: mstore,
		dir:    dir,
		rc:     rc,
		m:      m,
	}, nil
}

// Create writes the first manifest of an empty segment with totalDocs rows
// and opens it. It returns ErrSegmentExists if store already holds one.
func Create(ctx context.Context, store blobstore.BlobStore, name string, totalDocs int, version FormatVersion, optFns ...Option) (*Reconciler, error) {
	o := applyOptions(optFns)
	mstore := newManifestStore(store, o)

	if _, err := mstore.Load(ctx); err == nil {
		return nil, fmt.Errorf("create segment %s: %w", name, ErrSegmentExists)
	} else if !errors.Is(err, manifest.ErrNotFound) {
		return nil, fmt.Errorf("create segment %s: %w", name, err)
	}

	if err := mstore.Save(ctx, manifest.New(name, totalDocs, version)); err != nil {
		return nil, fmt.Errorf("create segment %s: %w", name, err)
	}
	return Open(ctx, store, optFns...)
}

func newManifestStore(store blobstore.BlobStore, o options) *manifest.Store {
	return manifest.NewStore(store,
		manifest.WithCodec(o.codec),
		manifest.WithClock(o.now),
	)
}

// Manifest returns a copy of the last committed manifest.
func (r *Reconciler) Manifest() *Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.Clone()
}

// Column returns the committed descriptor of a column.
func (r *Reconciler) Column(name string) (ColumnDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.m.Column(name)
	if !ok {
		return ColumnDescriptor{}, false
	}
	return d.Clone(), true
}

// Plan classifies every column against s without touching the segment.
func (r *Reconciler) Plan(s *schema.Schema, cfg schema.IndexingConfig) Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return reconcile.Classify(s, cfg.WithDefaults(), r.m)
}

// Reconcile runs one pass: it classifies every column against s and
// applies the ADD, UPDATE and REMOVE actions. The returned Report lists
// every classified column. The error is the joined column failures, or
// ctx.Err() when the pass was cut short.
func (r *Reconciler) Reconcile(ctx context.Context, s *schema.Schema, cfg schema.IndexingConfig) (*Report, error) {
	if s == nil {
		return nil, errors.New("reconcile: nil schema")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := r.opts.logger.WithSegment(r.m.SegmentName)
	env := reconcile.Env{
		Logger:    logger.Logger,
		Metrics:   r.opts.metricsCollector,
		Resources: r.rc,
		Now:       r.opts.now,
		Observe: func(ctx context.Context, res ColumnResult) {
			if res.Skipped {
				logger.LogSkipped(ctx, res.Column, res.Action)
				return
			}
			logger.LogAction(ctx, res.Column, res.Action, res.Err)
		},
	}

	h, err := reconcile.NewHandler(env, r.dir, r.mstore, r.m, cfg)
	if err != nil {
		return nil, err
	}

	plan := reconcile.Classify(s, cfg, r.m)
	for _, w := range plan.Warnings() {
		logger.LogDrift(ctx, w.Column, w.Warning)
	}

	report, err := reconcile.Run(ctx, env, h, r.m.SegmentName, plan, reconcile.PassOptions{
		ContinueOnError: r.opts.continueOnError,
	})
	r.m = h.Manifest()
	logger.LogPass(ctx, report)
	return report, err
}

// Close releases the segment directory and invalidates open handles.
// Unflushed changes are dropped; a finished pass leaves none.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.dir.Close()
}
