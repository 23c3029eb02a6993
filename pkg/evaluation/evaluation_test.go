package evaluation

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferlab/abc-go/pkg/errors"
)

func batch(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(i)}
	}
	return out
}

func double(theta []float64) (float64, error) {
	return theta[0] * 2, nil
}

func TestEvaluatorsPreserveOrder(t *testing.T) {
	evaluators := map[string]Evaluator{
		"sequential": Sequential{},
		"parallel":   NewParallel(4),
	}

	for name, ev := range evaluators {
		t.Run(name, func(t *testing.T) {
			thetas := batch(100)
			results, err := ev.Evaluate(context.Background(), thetas, double)
			require.NoError(t, err)
			require.Len(t, results, 100)
			for i, d := range results {
				assert.Equal(t, float64(i)*2, d)
			}
		})
	}
}

func TestEvaluatorsPropagateErrors(t *testing.T) {
	failing := func(theta []float64) (float64, error) {
		if theta[0] == 3 {
			return 0, errors.New(errors.Unknown, "simulator crashed")
		}
		return theta[0], nil
	}

	for name, ev := range map[string]Evaluator{
		"sequential": Sequential{},
		"parallel":   NewParallel(2),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ev.Evaluate(context.Background(), batch(10), failing)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "simulator crashed")
		})
	}
}

func TestEvaluatorsHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sequential{}.Evaluate(ctx, batch(5), double)
	require.Error(t, err)
	assert.Equal(t, errors.Canceled, errors.CodeOf(err))

	// The parallel pool may aggregate one canceled error per worker.
	_, err = NewParallel(2).Evaluate(ctx, batch(5), double)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canceled")
}

func TestParallelRunsEveryProposalOnce(t *testing.T) {
	var calls atomic.Int64
	counted := func(theta []float64) (float64, error) {
		calls.Add(1)
		return theta[0], nil
	}

	results, err := NewParallel(8).Evaluate(context.Background(), batch(50), counted)
	require.NoError(t, err)
	assert.Len(t, results, 50)
	assert.Equal(t, int64(50), calls.Load())
}

func TestNewParallelDefaultsWorkers(t *testing.T) {
	p := NewParallel(0)
	require.NotNil(t, p)
	assert.Greater(t, p.workers, 0)

	results, err := p.Evaluate(context.Background(), batch(3), double)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestEmptyBatch(t *testing.T) {
	results, err := Sequential{}.Evaluate(context.Background(), nil, double)
	require.NoError(t, err)
	assert.Empty(t, results)
}
