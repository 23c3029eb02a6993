package core

import (
	"github.com/inferlab/abc-go/pkg/errors"
)

// LogPrior is the capability surface samplers require from a prior
// distribution: evaluate a log-density, draw independent samples, and report
// the parameter-space dimensionality.
//
// A LogPrior doubles as a transition kernel when it describes an increment
// distribution: LogPDF evaluated at a displacement, Sample drawing one
// displacement per call.
type LogPrior interface {
	// LogPDF returns the log of the density at theta. Points outside the
	// support return math.Inf(-1).
	LogPDF(theta []float64) float64

	// Sample draws n independent vectors from the distribution. The result
	// has shape n x NParameters().
	Sample(n int) [][]float64

	// NParameters returns the dimensionality of the parameter space.
	NParameters() int
}

// Meaner is implemented by priors with an analytic mean.
type Meaner interface {
	Mean() []float64
}

// Quantiler is implemented by one-dimensional priors with an analytic CDF and
// inverse CDF.
type Quantiler interface {
	CDF(x float64) float64
	Quantile(p float64) float64
}

// ValidatePrior checks that a prior is usable as the initial proposal
// distribution. It is called at sampler construction so that a malformed
// prior never leaves partial sampler state behind.
func ValidatePrior(prior LogPrior) error {
	if prior == nil {
		return errors.New(errors.InvalidConfiguration, "a prior distribution is required")
	}
	if d := prior.NParameters(); d <= 0 {
		return errors.WithFields(
			errors.New(errors.InvalidConfiguration, "prior must report a positive dimensionality"),
			errors.Fields{"n_parameters": d},
		)
	}
	return nil
}

// ValidateKernel checks that a transition kernel matches the prior's
// parameter space.
func ValidateKernel(prior LogPrior, kernel LogPrior) error {
	if kernel == nil {
		return errors.New(errors.InvalidConfiguration, "transition kernel must expose sample and density")
	}
	if kernel.NParameters() != prior.NParameters() {
		return errors.WithFields(
			errors.New(errors.InvalidConfiguration, "transition kernel dimensionality must match the prior"),
			errors.Fields{
				"prior_dim":  prior.NParameters(),
				"kernel_dim": kernel.NParameters(),
			},
		)
	}
	return nil
}
