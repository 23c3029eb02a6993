// Package diagnostics provides convergence and quality metrics for weighted
// particle populations.
package diagnostics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/inferlab/abc-go/pkg/errors"
	"github.com/inferlab/abc-go/pkg/samplers"
)

// EffectiveSampleSize returns Kish's effective sample size of a weight
// vector, (sum w)^2 / sum w^2. For uniform weights it equals the population
// size; it shrinks as weights degenerate onto few particles.
func EffectiveSampleSize(weights []float64) (float64, error) {
	if len(weights) == 0 {
		return 0, errors.New(errors.InvalidInput, "effective sample size needs at least one weight")
	}
	var sum, sumSq float64
	for i, w := range weights {
		if w < 0 {
			return 0, errors.WithFields(
				errors.New(errors.InvalidInput, "weights must be non-negative"),
				errors.Fields{"index": i, "value": w},
			)
		}
		sum += w
		sumSq += w * w
	}
	if sumSq == 0 {
		return 0, errors.New(errors.InvalidInput, "weights must not all be zero")
	}
	return sum * sum / sumSq, nil
}

// Summary describes one dimension of a weighted posterior sample.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes per-dimension weighted summaries of a population.
func Summarize(pop *samplers.Population) ([]Summary, error) {
	if pop == nil || pop.Len() == 0 {
		return nil, errors.New(errors.InvalidInput, "cannot summarize an empty population")
	}

	dim := len(pop.Particle(0).Theta)
	weights := pop.Weights()
	out := make([]Summary, dim)
	column := make([]float64, pop.Len())

	for d := 0; d < dim; d++ {
		min, max := pop.Particle(0).Theta[d], pop.Particle(0).Theta[d]
		for i := 0; i < pop.Len(); i++ {
			v := pop.Particle(i).Theta[d]
			column[i] = v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		mean, std := stat.MeanStdDev(column, weights)
		out[d] = Summary{Mean: mean, StdDev: std, Min: min, Max: max}
	}
	return out, nil
}
