// Package budget meters the work done by a single request.
//
// A budget is a step counter stored in a context. Engines call Spend at
// every unit of work that can repeat (a rewrite, a trial division, a series
// term). When the counter runs out or the context is done, Spend returns a
// ComputationTimeoutError and the engine unwinds.
package budget

import (
	"context"
	"sync/atomic"

	"github.com/njchilds90/mathflow/errs"
)

type key struct{}

type counter struct {
	limit     int64
	remaining atomic.Int64
}

// With returns a context carrying a budget of steps. A non-positive steps
// value disables step counting; deadlines on ctx still apply.
func With(ctx context.Context, steps int64) context.Context {
	if steps <= 0 {
		return ctx
	}
	c := &counter{limit: steps}
	c.remaining.Store(steps)
	return context.WithValue(ctx, key{}, c)
}

// Spend consumes n steps.
func Spend(ctx context.Context, n int64) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.ComputationTimeoutError, err, "computation exceeded its time limit")
	}
	c, ok := ctx.Value(key{}).(*counter)
	if !ok {
		return nil
	}
	if c.remaining.Add(-n) < 0 {
		return errs.New(errs.ComputationTimeoutError, "computation exceeded its budget of %d steps", c.limit)
	}
	return nil
}

// Remaining reports the steps left in ctx, or -1 when ctx carries no budget.
func Remaining(ctx context.Context) int64 {
	c, ok := ctx.Value(key{}).(*counter)
	if !ok {
		return -1
	}
	if r := c.remaining.Load(); r > 0 {
		return r
	}
	return 0
}
