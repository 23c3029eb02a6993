package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferlab/abc-go/pkg/samplers"
)

func TestEffectiveSampleSize(t *testing.T) {
	// Uniform weights: ESS equals the population size.
	ess, err := EffectiveSampleSize([]float64{0.25, 0.25, 0.25, 0.25})
	require.NoError(t, err)
	assert.InDelta(t, 4, ess, 1e-12)

	// Degenerate weights: ESS collapses to one.
	ess, err = EffectiveSampleSize([]float64{1, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1, ess, 1e-12)

	// ESS is scale invariant.
	ess, err = EffectiveSampleSize([]float64{2, 2, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 4, ess, 1e-12)

	_, err = EffectiveSampleSize(nil)
	require.Error(t, err)
	_, err = EffectiveSampleSize([]float64{1, -1})
	require.Error(t, err)
	_, err = EffectiveSampleSize([]float64{0, 0})
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	pop := samplers.NewPopulation(3)
	require.NoError(t, pop.Append([]float64{1, 10}, 1))
	require.NoError(t, pop.Append([]float64{2, 20}, 1))
	require.NoError(t, pop.Append([]float64{3, 30}, 2))
	require.NoError(t, pop.Normalize())

	summaries, err := Summarize(pop)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Weighted mean: (1 + 2 + 3*2) / 4 = 2.25.
	assert.InDelta(t, 2.25, summaries[0].Mean, 1e-12)
	assert.InDelta(t, 22.5, summaries[1].Mean, 1e-12)
	assert.Equal(t, 1.0, summaries[0].Min)
	assert.Equal(t, 3.0, summaries[0].Max)
	assert.Greater(t, summaries[0].StdDev, 0.0)

	_, err = Summarize(nil)
	require.Error(t, err)
	_, err = Summarize(samplers.NewPopulation(2))
	require.Error(t, err)
}
