package budget

import "context"

// Limits are the per-request size caps that engines consult alongside the
// step counter. Zero fields take the defaults.
type Limits struct {
	MaxExpandPower int // largest n for which (a+b)^n is multiplied out
	MaxSeriesOrder int // largest Taylor order
	MaxTerms       int // largest range summed or multiplied term by term
}

// DefaultLimits are used when a context carries no Limits.
var DefaultLimits = Limits{MaxExpandPower: 64, MaxSeriesOrder: 30, MaxTerms: 10000}

type limitsKey struct{}

// WithLimits returns a context carrying l.
func WithLimits(ctx context.Context, l Limits) context.Context {
	return context.WithValue(ctx, limitsKey{}, l.withDefaults())
}

// LimitsOf returns the limits in ctx, or DefaultLimits.
func LimitsOf(ctx context.Context) Limits {
	if l, ok := ctx.Value(limitsKey{}).(Limits); ok {
		return l
	}
	return DefaultLimits
}

func (l Limits) withDefaults() Limits {
	if l.MaxExpandPower <= 0 {
		l.MaxExpandPower = DefaultLimits.MaxExpandPower
	}
	if l.MaxSeriesOrder <= 0 {
		l.MaxSeriesOrder = DefaultLimits.MaxSeriesOrder
	}
	if l.MaxTerms <= 0 {
		l.MaxTerms = DefaultLimits.MaxTerms
	}
	return l
}
