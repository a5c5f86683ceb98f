// Package mathflow transforms mathematical expressions written in LaTeX.
//
// A Request names an operation (factor, differentiate, integrate, sum,
// curl, ...) and carries its expression and parameters as LaTeX strings.
// Engine.Do parses them, runs the operation under a step budget and a
// deadline, and renders the result back to LaTeX:
//
//	eng := mathflow.New(mathflow.DefaultOptions())
//	resp, err := eng.Do(ctx, mathflow.Request{Op: "factor", Expression: `x^2 - 5x + 6`})
//	// resp.Result is (x-2)(x-3) in LaTeX
//
// Errors are *errs.Error values; errs.CategoryOf tells whether the request
// was at fault or the engine reached the edge of what it can compute.
package mathflow

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/internal/budget"
	"github.com/njchilds90/mathflow/latex"
)

// Options bound the work done per request.
type Options struct {
	MaxNodes   int           // parse-time expression size limit
	MaxDepth   int           // parse-time nesting limit
	StepBudget int64         // rewrite steps per request; <= 0 disables
	Timeout    time.Duration // per-request deadline; <= 0 disables

	MaxExpandPower int
	MaxSeriesOrder int
	MaxTerms       int

	CacheSize int // responses kept; 0 disables the cache

	Logger *slog.Logger
}

// DefaultOptions returns the limits used by the server and the CLI when no
// configuration overrides them.
func DefaultOptions() Options {
	return Options{
		MaxNodes:       10000,
		MaxDepth:       500,
		StepBudget:     2_000_000,
		Timeout:        10 * time.Second,
		MaxExpandPower: budget.DefaultLimits.MaxExpandPower,
		MaxSeriesOrder: budget.DefaultLimits.MaxSeriesOrder,
		MaxTerms:       budget.DefaultLimits.MaxTerms,
		CacheSize:      1024,
	}
}

// Engine evaluates requests. It is safe for concurrent use.
type Engine struct {
	opts   Options
	parser latex.Parser
	limits budget.Limits
	logger *slog.Logger

	cache  *cache
	flight singleflight.Group
}

// New returns an engine with the given options.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		opts:   opts,
		parser: latex.Parser{MaxNodes: opts.MaxNodes, MaxDepth: opts.MaxDepth},
		limits: budget.Limits{
			MaxExpandPower: opts.MaxExpandPower,
			MaxSeriesOrder: opts.MaxSeriesOrder,
			MaxTerms:       opts.MaxTerms,
		},
		logger: logger,
	}
	if opts.CacheSize > 0 {
		e.cache = newCache(opts.CacheSize)
	}
	return e
}

// Do runs req.Op. Identical concurrent requests are computed once.
func (e *Engine) Do(ctx context.Context, req Request) (*Response, error) {
	op, ok := byName[req.Op]
	if !ok {
		return nil, errs.New(errs.UnsupportedOperationError, "unknown operation %q", req.Op)
	}
	for _, f := range op.Required {
		if !req.has(f) {
			return nil, errs.New(errs.ParseError, "%s: missing required field %q", op.Name, f)
		}
	}
	if e.cache == nil {
		return e.run(ctx, op, &req)
	}

	k, err := e.cache.key(&req)
	if err != nil {
		return e.run(ctx, op, &req)
	}
	if resp, ok := e.cache.get(k); ok {
		return resp, nil
	}
	// The shared computation outlives any single caller; each caller waits
	// only as long as its own context allows.
	ch := e.flight.DoChan(hex.EncodeToString(k[:]), func() (interface{}, error) {
		resp, err := e.run(context.WithoutCancel(ctx), op, &req)
		if err != nil {
			return nil, err
		}
		e.cache.put(k, resp)
		return resp, nil
	})
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ComputationTimeoutError, err, "computation exceeded its time limit")
	}
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response).clone(), nil
	case <-ctx.Done():
		return nil, errs.Wrap(errs.ComputationTimeoutError, ctx.Err(), "computation exceeded its time limit")
	}
}

func (e *Engine) run(ctx context.Context, op *Operation, req *Request) (*Response, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	ctx = budget.WithLimits(budget.With(ctx, e.opts.StepBudget), e.limits)

	start := time.Now()
	resp, err := op.run(&call{ctx: ctx, req: req, p: e.parser})
	if errs.Has(err, errs.ComputationTimeoutError) {
		e.logger.Debug("computation stopped",
			"op", op.Name,
			"elapsed", time.Since(start),
			"steps_remaining", budget.Remaining(ctx),
			"error", err)
	}
	return resp, err
}
