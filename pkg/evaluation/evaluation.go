// Package evaluation computes batches of distances between an Ask and the
// matching Tell. The samplers impose no ordering requirement within a batch,
// so the work parallelizes freely; evaluators always return results in the
// order Ask produced the proposals.
package evaluation

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
)

// Evaluator maps a batch of proposals to one distance each.
type Evaluator interface {
	Evaluate(ctx context.Context, thetas [][]float64, distance core.DistanceFunc) ([]float64, error)
}

// Sequential evaluates proposals one at a time on the calling goroutine.
type Sequential struct{}

func (Sequential) Evaluate(ctx context.Context, thetas [][]float64, distance core.DistanceFunc) ([]float64, error) {
	results := make([]float64, len(thetas))
	for i, theta := range thetas {
		if err := errors.CheckContext(ctx, "evaluation"); err != nil {
			return nil, err
		}
		d, err := distance(theta)
		if err != nil {
			return nil, errors.WithFields(err, errors.Fields{"proposal": i})
		}
		results[i] = d
	}
	return results, nil
}

// Parallel evaluates proposals concurrently on a bounded worker pool. The
// distance function must be safe for concurrent invocation.
type Parallel struct {
	workers int
}

// NewParallel creates a parallel evaluator with the given worker count; zero
// or negative means one worker per CPU.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Parallel{workers: workers}
}

func (p *Parallel) Evaluate(ctx context.Context, thetas [][]float64, distance core.DistanceFunc) ([]float64, error) {
	results := make([]float64, len(thetas))

	wp := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(p.workers)
	for i, theta := range thetas {
		i, theta := i, theta
		wp.Go(func(ctx context.Context) error {
			if err := errors.CheckContext(ctx, "evaluation"); err != nil {
				return err
			}
			d, err := distance(theta)
			if err != nil {
				return errors.WithFields(err, errors.Fields{"proposal": i})
			}
			results[i] = d
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
