package samplers

import (
	"github.com/inferlab/abc-go/pkg/core"
)

// NewRegistry returns a registry with every sampler in the toolkit
// registered under its display name, using default configuration.
func NewRegistry() *core.SamplerRegistry {
	r := core.NewSamplerRegistry()
	r.Register("ABC-SMC", func(prior core.LogPrior) (core.ABCSampler, error) {
		return NewABCSMC(prior)
	})
	r.Register("ABC-Rejection", func(prior core.LogPrior) (core.ABCSampler, error) {
		return NewABCRejection(prior)
	})
	return r
}
