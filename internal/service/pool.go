package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// FailurePolicy decides what a multi-driver operation does when one driver's
// computation fails.
type FailurePolicy string

const (
	// FailureSkip drops the driver, logs a warning and reports it as skipped.
	FailureSkip FailurePolicy = "skip"
	// FailureAbort fails the whole operation with the first error.
	FailureAbort FailurePolicy = "abort"
)

// ParseFailurePolicy maps a config value to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", FailureSkip:
		return FailureSkip, nil
	case FailureAbort:
		return FailureAbort, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", s)
}

// ParseBreakRule maps a config value to a BreakRule.
func ParseBreakRule(s string) (BreakRule, error) {
	switch BreakRule(s) {
	case "", BreakRuleCumulative:
		return BreakRuleCumulative, nil
	case BreakRuleConsecutive:
		return BreakRuleConsecutive, nil
	}
	return "", fmt.Errorf("unknown break rule %q", s)
}

const defaultWorkerLimit = 8

// forEach runs fn for indexes 0..n-1 with at most limit goroutines in flight.
// Callers write results into a pre-sized slice at index i, which keeps input
// order without sorting. The first non-nil error cancels ctx for the rest.
func forEach(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = defaultWorkerLimit
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
