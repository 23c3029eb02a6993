package samplers

import (
	"math"

	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
)

// ABCRejection is the plain rejection sampler: every proposal is an
// independent prior draw, accepted when its distance falls strictly below a
// single fixed threshold. It follows the same ask/tell protocol as ABCSMC
// and is the toolkit's baseline strategy.
type ABCRejection struct {
	prior     core.LogPrior
	threshold float64
	pending   [][]float64
	proposed  int
	accepted  int
}

var _ core.ABCSampler = (*ABCRejection)(nil)

// NewABCRejection creates a rejection sampler over the given prior with a
// default threshold of 1.
func NewABCRejection(prior core.LogPrior) (*ABCRejection, error) {
	if err := core.ValidatePrior(prior); err != nil {
		return nil, err
	}
	return &ABCRejection{prior: prior, threshold: 1}, nil
}

// Name returns the sampler's display name.
func (s *ABCRejection) Name() string { return "ABC-Rejection" }

// SetThreshold sets the acceptance threshold; it must be strictly positive.
func (s *ABCRejection) SetThreshold(threshold float64) error {
	if !(threshold > 0) {
		return errors.WithFields(
			errors.New(errors.InvalidConfiguration, "threshold must be positive"),
			errors.Fields{"threshold": threshold},
		)
	}
	s.threshold = threshold
	return nil
}

// Threshold returns the configured acceptance threshold.
func (s *ABCRejection) Threshold() float64 { return s.threshold }

// Ask requests n independent prior draws.
func (s *ABCRejection) Ask(n int) ([][]float64, error) {
	if s.pending != nil {
		return nil, errors.New(errors.ProtocolViolation, "ask called while a previous ask is outstanding")
	}
	if n <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "ask requires a positive batch size"),
			errors.Fields{"n": n},
		)
	}
	s.pending = s.prior.Sample(n)
	return copyBatch(s.pending), nil
}

// Tell resolves the pending batch, returning accepted vectors or nil.
func (s *ABCRejection) Tell(distances []float64) ([][]float64, error) {
	if s.pending == nil {
		return nil, errors.New(errors.ProtocolViolation, "tell called with no matching ask")
	}
	if len(distances) != len(s.pending) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "tell requires one distance per pending proposal"),
			errors.Fields{"pending": len(s.pending), "got": len(distances)},
		)
	}
	for i, d := range distances {
		if math.IsNaN(d) || d < 0 {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "distances must be non-negative"),
				errors.Fields{"index": i, "value": d},
			)
		}
	}

	var accepted [][]float64
	for i, d := range distances {
		s.proposed++
		if d < s.threshold {
			s.accepted++
			accepted = append(accepted, copyVector(s.pending[i]))
		}
	}
	s.pending = nil

	if len(accepted) == 0 {
		return nil, nil
	}
	return accepted, nil
}

// TellOne is a convenience for single-proposal batches.
func (s *ABCRejection) TellOne(distance float64) ([][]float64, error) {
	return s.Tell([]float64{distance})
}

// Stats returns the cumulative proposed and accepted counts.
func (s *ABCRejection) Stats() (proposed, accepted int) {
	return s.proposed, s.accepted
}
