package segmend

import (
	"errors"

	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/internal/reconcile"
	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/value"
)

var (
	// ErrNotFound is returned by Open when the store holds no segment.
	ErrNotFound = manifest.ErrNotFound

	// ErrSegmentExists is returned by Create when the store already holds
	// a segment.
	ErrSegmentExists = errors.New("segment already exists")

	// ErrClosed is returned after Close, and by read handles whose artifact
	// was removed.
	ErrClosed = segment.ErrClosed

	// ErrSkipped marks a column that was not started because the pass
	// stopped first.
	ErrSkipped = reconcile.ErrSkipped

	// ErrUnsupportedType is matched by every *UnsupportedTypeError.
	ErrUnsupportedType = value.ErrUnsupportedType
)

// UnsupportedTypeError reports a column whose data type has no encoding.
//
// errors.Is(err, ErrUnsupportedType) holds for it.
type UnsupportedTypeError = reconcile.UnsupportedTypeError

// IOError reports a storage failure during one phase of a column action.
//
// The underlying storage error can be accessed via errors.Unwrap.
type IOError = reconcile.IOError

// InconsistentStateError reports a segment state an action cannot resolve,
// such as artifacts that are still open.
type InconsistentStateError = reconcile.InconsistentStateError

// Phase names the step of a column action that failed.
type Phase = reconcile.Phase

const (
	PhaseRemove = reconcile.PhaseRemove
	PhaseBuild  = reconcile.PhaseBuild
	PhaseCommit = reconcile.PhaseCommit
)
