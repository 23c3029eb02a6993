// Package priors provides prior distributions for use with the samplers.
//
// The analytic formulas are not implemented here: each prior wraps the
// corresponding gonum distribution and adapts it to the core.LogPrior
// capability surface. All priors accept an optional rand.Source so runs can
// be made deterministic.
package priors

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferlab/abc-go/pkg/errors"
)

// Uniform is a box-uniform prior over a d-dimensional rectangle.
type Uniform struct {
	dists []distuv.Uniform
}

// NewUniform creates a uniform prior on the rectangle [lower[i], upper[i]]
// for each dimension i. src may be nil, in which case the global source is
// used.
func NewUniform(lower, upper []float64, src rand.Source) (*Uniform, error) {
	if len(lower) == 0 {
		return nil, errors.New(errors.InvalidConfiguration, "uniform prior needs at least one dimension")
	}
	if len(lower) != len(upper) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "uniform prior bounds must have equal length"),
			errors.Fields{"lower": len(lower), "upper": len(upper)},
		)
	}

	dists := make([]distuv.Uniform, len(lower))
	for i := range lower {
		if lower[i] >= upper[i] {
			return nil, errors.WithFields(
				errors.New(errors.InvalidConfiguration, "uniform prior requires lower < upper"),
				errors.Fields{"dimension": i, "lower": lower[i], "upper": upper[i]},
			)
		}
		dists[i] = distuv.Uniform{Min: lower[i], Max: upper[i], Src: src}
	}
	return &Uniform{dists: dists}, nil
}

// LogPDF returns the log-density at theta, or -Inf outside the rectangle.
func (u *Uniform) LogPDF(theta []float64) float64 {
	if len(theta) != len(u.dists) {
		return negInf
	}
	var sum float64
	for i, d := range u.dists {
		sum += d.LogProb(theta[i])
	}
	return sum
}

// Sample draws n independent vectors from the rectangle.
func (u *Uniform) Sample(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		theta := make([]float64, len(u.dists))
		for j, d := range u.dists {
			theta[j] = d.Rand()
		}
		out[i] = theta
	}
	return out
}

// NParameters returns the dimensionality of the rectangle.
func (u *Uniform) NParameters() int { return len(u.dists) }

// Mean returns the center of the rectangle.
func (u *Uniform) Mean() []float64 {
	mean := make([]float64, len(u.dists))
	for i, d := range u.dists {
		mean[i] = d.Mean()
	}
	return mean
}

// CDF evaluates the cumulative distribution in the one-dimensional case.
// It panics for multi-dimensional priors.
func (u *Uniform) CDF(x float64) float64 {
	u.mustBeScalar()
	return u.dists[0].CDF(x)
}

// Quantile evaluates the inverse CDF in the one-dimensional case.
// It panics for multi-dimensional priors.
func (u *Uniform) Quantile(p float64) float64 {
	u.mustBeScalar()
	return u.dists[0].Quantile(p)
}

func (u *Uniform) mustBeScalar() {
	if len(u.dists) != 1 {
		panic("priors: CDF/Quantile defined only for one-dimensional priors")
	}
}
