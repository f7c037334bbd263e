// Copyright 2021 The rtcohort authors.
// All rights reserved.

package rt

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rtcohort/dataset"
)

// Result collects the outcome of estimating a whole cohort: one
// Estimate per country that produced output, and the reason for each
// country that didn't.
type Result struct {
	Estimates map[string]Estimate
	Failures  map[string]error
}

// EstimateAll runs e over every series concurrently. Each country is
// independent and failure-isolated: a country whose series can't be
// estimated lands in Failures and never aborts the group. Only context
// cancellation produces an error.
func EstimateAll(ctx context.Context, e *Estimator, series map[string]*dataset.Series, logger *zap.Logger) (*Result, error) {
	res := &Result{
		Estimates: make(map[string]Estimate, len(series)),
		Failures:  make(map[string]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for code, s := range series {
		code, s := code, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est, err := e.Estimate(s)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Dropping country from cohort estimate",
					zap.String("country", code), zap.Error(err))
				res.Failures[code] = err
				return nil
			}
			res.Estimates[code] = est
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
