package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
)

// ColumnReconciler applies one classified action to one column.
type ColumnReconciler interface {
	Reconcile(ctx context.Context, d Decision) error
}

// Handler reconciles the columns of one segment. It is bound to the
// segment's Directory, which selects the on-disk layout.
type Handler struct {
	env     Env
	dir     segment.Directory
	commit  *committer
	builder builder
}

var _ ColumnReconciler = (*Handler)(nil)

// NewHandler returns a handler for the segment described by m. Descriptor
// commits go through store.
func NewHandler(env Env, dir segment.Directory, store *manifest.Store, m *manifest.Manifest, cfg schema.IndexingConfig) (*Handler, error) {
	if m.FormatVersion != dir.Version() {
		return nil, fmt.Errorf("reconcile: segment %s is %s, directory is %s", m.SegmentName, m.FormatVersion, dir.Version())
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env = env.withDefaults()
	return &Handler{
		env:     env,
		dir:     dir,
		commit:  newCommitter(store, dir, m, env.Logger),
		builder: builder{numDocs: m.TotalDocs, cfg: cfg},
	}, nil
}

// Manifest returns a copy of the last committed manifest.
func (h *Handler) Manifest() *manifest.Manifest { return h.commit.manifest() }

// Reconcile runs d. REMOVE and UPDATE tear the column down first; ADD and
// UPDATE then build and commit the new column.
func (h *Handler) Reconcile(ctx context.Context, d Decision) error {
	switch d.Action {
	case ActionNoOp:
		return nil
	case ActionAdd, ActionUpdate, ActionRemove:
	default:
		return fmt.Errorf("reconcile: column %q: unknown action %s", d.Column, d.Action)
	}

	h.env.Logger.InfoContext(ctx, "starting default column action",
		"action", d.Action.String(),
		"column", d.Column,
		"reason", d.Reason,
	)

	if d.Action.IsUpdate() || d.Action.IsRemove() {
		if err := h.remove(ctx, d.Column); err != nil {
			return wrapPhase(d.Column, PhaseRemove, err)
		}
	}
	if d.Action.IsAdd() || d.Action.IsUpdate() {
		return h.create(ctx, d)
	}
	return nil
}

// remove deletes every artifact of column and drops its descriptor. A
// column with neither is left alone.
func (h *Handler) remove(ctx context.Context, column string) error {
	for _, a := range segment.Artifacts {
		if err := h.dir.Delete(ctx, column, a); err != nil {
			return err
		}
	}
	if n := h.dir.OpenHandles(column); n > 0 {
		return &InconsistentStateError{Column: column, Reason: fmt.Sprintf("%d read handles still open after removal", n)}
	}
	return h.commit.drop(ctx, column)
}

func (h *Handler) create(ctx context.Context, d Decision) error {
	if d.TextIndex {
		has, err := h.dir.Has(ctx, d.Column, segment.ArtifactDictionary)
		if err != nil {
			return wrapPhase(d.Column, PhaseBuild, err)
		}
		if has {
			return &InconsistentStateError{Column: d.Column, Reason: "text-indexed column still has a dictionary"}
		}
	}

	cb, err := h.builder.build(d)
	if err != nil {
		return wrapPhase(d.Column, PhaseBuild, err)
	}
	if err := write(ctx, h.dir, cb); err != nil {
		return wrapPhase(d.Column, PhaseBuild, h.rollback(ctx, cb, err))
	}

	if err := h.commit.commit(ctx, cb.desc); err != nil {
		return wrapPhase(d.Column, PhaseCommit, h.rollback(ctx, cb, err))
	}

	h.env.Logger.DebugContext(ctx, "default column committed",
		slog.String("column", d.Column),
		slog.String("encoding", cb.desc.Encoding.String()),
		slog.Int("cardinality", cb.desc.Cardinality),
		slog.Int("total_docs", cb.desc.TotalDocs),
	)
	return nil
}

// rollback discards the artifacts of cb after cause.
func (h *Handler) rollback(ctx context.Context, cb *columnBuild, cause error) error {
	if err := h.commit.discard(ctx, cb.desc.Name, cb.kinds()); err != nil {
		h.env.Logger.ErrorContext(ctx, "rolling back column artifacts failed",
			"column", cb.desc.Name,
			"error", err,
		)
		return errors.Join(cause, err)
	}
	return cause
}
