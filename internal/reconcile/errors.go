package reconcile

import (
	"errors"
	"fmt"

	"github.com/hupe1980/segmend/value"
)

// ErrSkipped marks a column that was not started because an earlier column
// failed or the pass context ended.
var ErrSkipped = errors.New("reconcile: column skipped")

// Phase names the step of a column action that failed.
type Phase string

const (
	// PhaseRemove is the teardown of existing artifacts and descriptor.
	PhaseRemove Phase = "remove"
	// PhaseBuild is the synthesis of new artifacts.
	PhaseBuild Phase = "build"
	// PhaseCommit is the descriptor write.
	PhaseCommit Phase = "commit"
)

// UnsupportedTypeError is returned for a column whose data type has no
// encoding. No artifacts or descriptor are written for it.
type UnsupportedTypeError struct {
	Column string
	Type   value.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("column %q: unsupported data type %s", e.Column, e.Type)
}

// Unwrap returns value.ErrUnsupportedType.
func (e *UnsupportedTypeError) Unwrap() error { return value.ErrUnsupportedType }

// IOError is a storage failure during one phase of a column action. The
// column can be retried from scratch.
type IOError struct {
	Column string
	Phase  Phase
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("column %q: %s failed: %v", e.Column, e.Phase, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// InconsistentStateError reports segment state the action cannot proceed
// from, such as a text-indexed column that still has a dictionary.
type InconsistentStateError struct {
	Column string
	Reason string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("column %q: inconsistent state: %s", e.Column, e.Reason)
}

// wrapPhase returns err unchanged if it is already one of the typed errors,
// otherwise an IOError for phase.
func wrapPhase(column string, phase Phase, err error) error {
	if err == nil {
		return nil
	}
	var (
		ioErr  *IOError
		utErr  *UnsupportedTypeError
		incErr *InconsistentStateError
	)
	if errors.As(err, &ioErr) || errors.As(err, &utErr) || errors.As(err, &incErr) {
		return err
	}
	return &IOError{Column: column, Phase: phase, Err: err}
}
