package reconcile

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/segmend/internal/resource"
)

// Metrics receives per-column and per-pass measurements.
type Metrics interface {
	RecordAction(action Action, duration time.Duration, err error)
	RecordPass(columns, failed int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordAction(Action, time.Duration, error) {}
func (noopMetrics) RecordPass(int, int, time.Duration)        {}

// Env carries the ambient dependencies of a pass.
type Env struct {
	Logger    *slog.Logger
	Metrics   Metrics
	Resources *resource.Controller
	Now       func() time.Time
	// Observe is called once for every finished or skipped column.
	Observe func(ctx context.Context, r ColumnResult)
}

// withDefaults fills unset fields with discarding implementations.
func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.Metrics == nil {
		e.Metrics = noopMetrics{}
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Observe == nil {
		e.Observe = func(context.Context, ColumnResult) {}
	}
	return e
}
