package harness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunMany runs n independent instances concurrently. configFor returns the
// configuration of instance i; instances must not share writers or
// services that keep per-run state. Results are returned in instance order.
func RunMany(ctx context.Context, n int, configFor func(i int) Config) ([]*Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("run count must be positive, got %d", n)
	}

	results := make([]*Result, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			r, err := Run(gctx, configFor(i))
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckConsistent verifies that every result has the same verdict and the
// same field values as the first one.
func CheckConsistent(results []*Result) error {
	if len(results) == 0 {
		return nil
	}
	first := results[0]
	for i, r := range results[1:] {
		if r.Code != first.Code || r.Outcome != first.Outcome {
			return fmt.Errorf("run %d: verdict %s/%s differs from run 0: %s/%s",
				i+1, r.Code, r.Outcome, first.Code, first.Outcome)
		}
		if r.Joined != first.Joined || r.Fields != first.Fields {
			return fmt.Errorf("run %d: field values differ from run 0: %v vs %v",
				i+1, r.Fields.Values(), first.Fields.Values())
		}
	}
	return nil
}
