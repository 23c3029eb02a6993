package priors

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferlab/abc-go/pkg/errors"
)

var negInf = math.Inf(-1)

// Gaussian is a one-dimensional normal prior.
type Gaussian struct {
	dist distuv.Normal
}

// NewGaussian creates a normal prior with the given mean and standard
// deviation. src may be nil.
func NewGaussian(mu, sigma float64, src rand.Source) (*Gaussian, error) {
	if sigma <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "gaussian prior requires a positive standard deviation"),
			errors.Fields{"sigma": sigma},
		)
	}
	return &Gaussian{dist: distuv.Normal{Mu: mu, Sigma: sigma, Src: src}}, nil
}

func (g *Gaussian) LogPDF(theta []float64) float64 {
	if len(theta) != 1 {
		return negInf
	}
	return g.dist.LogProb(theta[0])
}

func (g *Gaussian) Sample(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{g.dist.Rand()}
	}
	return out
}

func (g *Gaussian) NParameters() int { return 1 }

func (g *Gaussian) Mean() []float64 { return []float64{g.dist.Mu} }

func (g *Gaussian) CDF(x float64) float64 { return g.dist.CDF(x) }

func (g *Gaussian) Quantile(p float64) float64 { return g.dist.Quantile(p) }

// MultivariateGaussian is a d-dimensional normal prior. Centered at zero
// with a small diagonal covariance it is the standard transition kernel for
// the SMC sampler.
type MultivariateGaussian struct {
	dist *distmv.Normal
	dim  int
}

// NewMultivariateGaussian creates a multivariate normal prior with the given
// mean vector and covariance matrix. src may be nil.
func NewMultivariateGaussian(mu []float64, cov *mat.SymDense, src rand.Source) (*MultivariateGaussian, error) {
	if len(mu) == 0 {
		return nil, errors.New(errors.InvalidConfiguration, "multivariate gaussian needs at least one dimension")
	}
	if cov.SymmetricDim() != len(mu) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "covariance dimension must match the mean vector"),
			errors.Fields{"mean_dim": len(mu), "cov_dim": cov.SymmetricDim()},
		)
	}
	dist, ok := distmv.NewNormal(mu, cov, src)
	if !ok {
		return nil, errors.New(errors.InvalidConfiguration, "covariance matrix must be positive definite")
	}
	return &MultivariateGaussian{dist: dist, dim: len(mu)}, nil
}

// NewGaussianKernel creates a zero-mean isotropic gaussian increment
// distribution with the given per-dimension variance, the usual perturbation
// kernel for sequential importance sampling.
func NewGaussianKernel(dim int, variance float64, src rand.Source) (*MultivariateGaussian, error) {
	if dim <= 0 {
		return nil, errors.New(errors.InvalidConfiguration, "kernel dimension must be positive")
	}
	if variance <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "kernel variance must be positive"),
			errors.Fields{"variance": variance},
		)
	}
	mu := make([]float64, dim)
	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		cov.SetSym(i, i, variance)
	}
	return NewMultivariateGaussian(mu, cov, src)
}

func (m *MultivariateGaussian) LogPDF(theta []float64) float64 {
	if len(theta) != m.dim {
		return negInf
	}
	return m.dist.LogProb(theta)
}

func (m *MultivariateGaussian) Sample(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = m.dist.Rand(nil)
	}
	return out
}

func (m *MultivariateGaussian) NParameters() int { return m.dim }

func (m *MultivariateGaussian) Mean() []float64 { return m.dist.Mean(nil) }
