package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ColumnResult is the outcome of one column in a pass.
type ColumnResult struct {
	Column   string
	Action   Action
	Err      error
	Duration time.Duration
	// Skipped is set for columns that never started.
	Skipped bool
}

// Report collects the results of a pass in plan order.
type Report struct {
	Segment  string
	Results  []ColumnResult
	Duration time.Duration
}

// Failed returns the number of columns that failed.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil && !res.Skipped {
			n++
		}
	}
	return n
}

// Skipped returns the number of columns that never started.
func (r *Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// Changed returns the columns whose action succeeded and modified the
// segment.
func (r *Report) Changed() []string {
	var out []string
	for _, res := range r.Results {
		if res.Err == nil && !res.Skipped && !res.Action.IsNoOp() {
			out = append(out, res.Column)
		}
	}
	return out
}

// Result returns the result for column.
func (r *Report) Result(column string) (ColumnResult, bool) {
	for _, res := range r.Results {
		if res.Column == column {
			return res, true
		}
	}
	return ColumnResult{}, false
}

// Err joins the errors of all failed columns.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil && !res.Skipped {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// PassOptions tunes a pass.
type PassOptions struct {
	// ContinueOnError keeps starting columns after a failure.
	ContinueOnError bool
}

// Run executes plan against h. Columns run in parallel up to the worker
// limit of env.Resources. Once a column starts, it runs to completion even
// if ctx ends; ctx only gates starting further columns. Unless
// opts.ContinueOnError is set, the first failure stops the pass.
//
// The returned error is Report.Err, or ctx.Err when the pass was cut short
// without a column failure.
func Run(ctx context.Context, env Env, h ColumnReconciler, segment string, plan Plan, opts PassOptions) (*Report, error) {
	env = env.withDefaults()
	start := env.Now()

	decisions := plan.Decisions()
	report := &Report{Segment: segment, Results: make([]ColumnResult, len(decisions))}
	for i, d := range decisions {
		report.Results[i] = ColumnResult{Column: d.Column, Action: d.Action}
	}

	var (
		stop atomic.Bool
		g    errgroup.Group
	)
	next := 0
	for ; next < len(decisions); next++ {
		d := decisions[next]
		if d.Action.IsNoOp() {
			continue
		}
		if err := env.Resources.AcquireWorker(ctx); err != nil {
			break
		}
		if stop.Load() || ctx.Err() != nil {
			env.Resources.ReleaseWorker()
			break
		}

		i := next
		g.Go(func() error {
			defer env.Resources.ReleaseWorker()

			cctx := context.WithoutCancel(ctx)
			began := env.Now()
			err := h.Reconcile(cctx, d)
			res := ColumnResult{Column: d.Column, Action: d.Action, Err: err, Duration: env.Now().Sub(began)}
			report.Results[i] = res

			if err != nil && !opts.ContinueOnError {
				stop.Store(true)
			}
			env.Metrics.RecordAction(d.Action, res.Duration, err)
			env.Observe(cctx, res)
			return nil
		})
	}
	_ = g.Wait()

	for i := next; i < len(decisions); i++ {
		if decisions[i].Action.IsNoOp() {
			continue
		}
		res := ColumnResult{Column: decisions[i].Column, Action: decisions[i].Action, Err: ErrSkipped, Skipped: true}
		report.Results[i] = res
		env.Observe(ctx, res)
	}

	report.Duration = env.Now().Sub(start)
	env.Metrics.RecordPass(len(decisions), report.Failed(), report.Duration)

	if err := report.Err(); err != nil {
		return report, err
	}
	if report.Skipped() > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}
	return report, nil
}
