// Package measures builds scalar distance functions from observed data and a
// caller-supplied forward simulator. The simulator itself lives outside the
// toolkit; a measure only compares its output against the observations.
package measures

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
)

// Measure maps a candidate parameter vector to a non-negative discrepancy
// versus the observed data.
type Measure interface {
	Distance(theta []float64) (float64, error)
}

// Func adapts a Measure to the core.DistanceFunc consumed by evaluators.
func Func(m Measure) core.DistanceFunc {
	return m.Distance
}

type seriesMeasure struct {
	observed []float64
	simulate core.Simulator
}

func newSeriesMeasure(observed []float64, simulate core.Simulator) (seriesMeasure, error) {
	if len(observed) == 0 {
		return seriesMeasure{}, errors.New(errors.InvalidConfiguration, "a measure needs observed data")
	}
	if simulate == nil {
		return seriesMeasure{}, errors.New(errors.InvalidConfiguration, "a measure needs a simulator")
	}
	obs := make([]float64, len(observed))
	copy(obs, observed)
	return seriesMeasure{observed: obs, simulate: simulate}, nil
}

// run simulates at theta and checks the output shape.
func (m seriesMeasure) run(theta []float64) ([]float64, error) {
	sim, err := m.simulate(theta)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "simulator failed")
	}
	if len(sim) != len(m.observed) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "simulated series length must match the observations"),
			errors.Fields{"observed": len(m.observed), "simulated": len(sim)},
		)
	}
	return sim, nil
}

// RootMeanSquaredError is the root of the mean squared pointwise residual.
type RootMeanSquaredError struct {
	seriesMeasure
}

func NewRootMeanSquaredError(observed []float64, simulate core.Simulator) (*RootMeanSquaredError, error) {
	m, err := newSeriesMeasure(observed, simulate)
	if err != nil {
		return nil, err
	}
	return &RootMeanSquaredError{seriesMeasure: m}, nil
}

func (m *RootMeanSquaredError) Distance(theta []float64) (float64, error) {
	sim, err := m.run(theta)
	if err != nil {
		return 0, err
	}
	l2 := floats.Distance(sim, m.observed, 2)
	return l2 / math.Sqrt(float64(len(m.observed))), nil
}

// MeanSquaredError is the mean squared pointwise residual.
type MeanSquaredError struct {
	seriesMeasure
}

func NewMeanSquaredError(observed []float64, simulate core.Simulator) (*MeanSquaredError, error) {
	m, err := newSeriesMeasure(observed, simulate)
	if err != nil {
		return nil, err
	}
	return &MeanSquaredError{seriesMeasure: m}, nil
}

func (m *MeanSquaredError) Distance(theta []float64) (float64, error) {
	sim, err := m.run(theta)
	if err != nil {
		return 0, err
	}
	l2 := floats.Distance(sim, m.observed, 2)
	return l2 * l2 / float64(len(m.observed)), nil
}

// SumOfSquares is the unnormalized squared residual.
type SumOfSquares struct {
	seriesMeasure
}

func NewSumOfSquares(observed []float64, simulate core.Simulator) (*SumOfSquares, error) {
	m, err := newSeriesMeasure(observed, simulate)
	if err != nil {
		return nil, err
	}
	return &SumOfSquares{seriesMeasure: m}, nil
}

func (m *SumOfSquares) Distance(theta []float64) (float64, error) {
	sim, err := m.run(theta)
	if err != nil {
		return 0, err
	}
	l2 := floats.Distance(sim, m.observed, 2)
	return l2 * l2, nil
}
