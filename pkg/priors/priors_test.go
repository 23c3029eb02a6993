package priors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
)

// The priors must satisfy the sampler-facing capability surface.
var (
	_ core.LogPrior = (*Uniform)(nil)
	_ core.LogPrior = (*Gaussian)(nil)
	_ core.LogPrior = (*MultivariateGaussian)(nil)
	_ core.LogPrior = (*Composed)(nil)
	_ core.Meaner   = (*Uniform)(nil)
	_ core.Quantiler = (*Gaussian)(nil)
)

func TestUniformValidation(t *testing.T) {
	_, err := NewUniform(nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))

	_, err = NewUniform([]float64{0}, []float64{1, 2}, nil)
	assert.Error(t, err)

	_, err = NewUniform([]float64{1}, []float64{1}, nil)
	assert.Error(t, err)
}

func TestUniformDensityAndSupport(t *testing.T) {
	u, err := NewUniform([]float64{0, 0}, []float64{2, 4}, rand.NewSource(1))
	require.NoError(t, err)

	assert.Equal(t, 2, u.NParameters())
	// Density is 1/(2*4) everywhere inside the box.
	assert.InDelta(t, math.Log(1.0/8.0), u.LogPDF([]float64{1, 1}), 1e-12)
	assert.True(t, math.IsInf(u.LogPDF([]float64{-0.5, 1}), -1))
	assert.True(t, math.IsInf(u.LogPDF([]float64{1, 5}), -1))
	// Wrong dimension is outside the support, not a panic.
	assert.True(t, math.IsInf(u.LogPDF([]float64{1}), -1))

	assert.Equal(t, []float64{1, 2}, u.Mean())

	samples := u.Sample(50)
	require.Len(t, samples, 50)
	for _, s := range samples {
		require.Len(t, s, 2)
		assert.False(t, math.IsInf(u.LogPDF(s), -1))
	}
}

func TestUniformQuantileScalarOnly(t *testing.T) {
	u, err := NewUniform([]float64{0}, []float64{10}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, u.CDF(5), 1e-12)
	assert.InDelta(t, 2.5, u.Quantile(0.25), 1e-12)

	u2, err := NewUniform([]float64{0, 0}, []float64{1, 1}, nil)
	require.NoError(t, err)
	assert.Panics(t, func() { u2.CDF(0.5) })
}

func TestGaussian(t *testing.T) {
	_, err := NewGaussian(0, -1, nil)
	require.Error(t, err)

	g, err := NewGaussian(1, 2, rand.NewSource(7))
	require.NoError(t, err)

	assert.Equal(t, 1, g.NParameters())
	assert.Equal(t, []float64{1}, g.Mean())
	// Peak density of N(1, 2^2).
	assert.InDelta(t, -math.Log(2*math.Sqrt(2*math.Pi)), g.LogPDF([]float64{1}), 1e-12)
	assert.InDelta(t, 0.5, g.CDF(1), 1e-12)
	assert.InDelta(t, 1.0, g.Quantile(0.5), 1e-12)

	samples := g.Sample(10)
	require.Len(t, samples, 10)
	for _, s := range samples {
		require.Len(t, s, 1)
	}
}

func TestMultivariateGaussian(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	m, err := NewMultivariateGaussian([]float64{0, 0}, cov, rand.NewSource(3))
	require.NoError(t, err)

	assert.Equal(t, 2, m.NParameters())
	// Standard bivariate normal at the origin.
	assert.InDelta(t, -math.Log(2*math.Pi), m.LogPDF([]float64{0, 0}), 1e-12)
	assert.Equal(t, []float64{0, 0}, m.Mean())

	// Non positive definite covariance is rejected.
	bad := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	_, err = NewMultivariateGaussian([]float64{0, 0}, bad, nil)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))
}

func TestGaussianKernel(t *testing.T) {
	k, err := NewGaussianKernel(1, 0.001, rand.NewSource(11))
	require.NoError(t, err)
	assert.Equal(t, 1, k.NParameters())

	// Increments should be small relative to the variance.
	for _, s := range k.Sample(100) {
		assert.Less(t, math.Abs(s[0]), 0.5)
	}

	_, err = NewGaussianKernel(0, 0.1, nil)
	assert.Error(t, err)
	_, err = NewGaussianKernel(1, 0, nil)
	assert.Error(t, err)
}

func TestComposed(t *testing.T) {
	u, err := NewUniform([]float64{0}, []float64{1}, rand.NewSource(5))
	require.NoError(t, err)
	g, err := NewGaussian(0, 1, rand.NewSource(6))
	require.NoError(t, err)

	c, err := NewComposed(u, g)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NParameters())

	// Density factorizes across sub-priors.
	theta := []float64{0.5, 0.0}
	want := u.LogPDF(theta[:1]) + g.LogPDF(theta[1:])
	assert.InDelta(t, want, c.LogPDF(theta), 1e-12)

	samples := c.Sample(5)
	require.Len(t, samples, 5)
	for _, s := range samples {
		require.Len(t, s, 2)
	}

	_, err = NewComposed()
	assert.Error(t, err)
}
