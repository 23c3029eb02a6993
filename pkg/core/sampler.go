package core

import (
	"github.com/inferlab/abc-go/pkg/errors"
)

// ABCSampler is the ask/tell contract every sampler in the toolkit follows.
//
// The protocol is strictly request/response with at most one outstanding
// request: Ask issues a batch of proposals, the caller evaluates a distance
// for each, and Tell resolves the batch. Samplers are synchronous and not
// safe for concurrent use without external mutual exclusion.
type ABCSampler interface {
	// Ask requests n candidate parameter vectors. Calling Ask while a
	// previous batch is unresolved fails with a ProtocolViolation error.
	Ask(n int) ([][]float64, error)

	// Tell resolves the pending batch with one non-negative distance per
	// proposal, in the order Ask returned them. It returns the proposals
	// accepted from this batch, or nil when none were accepted. Calling
	// Tell with no pending batch fails with a ProtocolViolation error.
	Tell(distances []float64) ([][]float64, error)

	// Name returns the sampler's display name.
	Name() string
}

// DistanceFunc maps a candidate parameter vector to a scalar discrepancy
// versus observed data. It is evaluated by the caller between an Ask and the
// matching Tell, possibly in parallel across a batch.
type DistanceFunc func(theta []float64) (float64, error)

// Simulator runs a forward model at theta and returns the simulated series.
// Forward models live outside this toolkit; distance measures are built from
// a Simulator plus observed data.
type Simulator func(theta []float64) ([]float64, error)

// SamplerFactory is a function type for creating ABCSampler instances from a
// prior.
type SamplerFactory func(prior LogPrior) (ABCSampler, error)

// SamplerRegistry maintains a registry of available sampler implementations.
type SamplerRegistry struct {
	factories map[string]SamplerFactory
}

// NewSamplerRegistry creates a new SamplerRegistry.
func NewSamplerRegistry() *SamplerRegistry {
	return &SamplerRegistry{
		factories: make(map[string]SamplerFactory),
	}
}

// Register adds a new sampler factory to the registry.
func (r *SamplerRegistry) Register(name string, factory SamplerFactory) {
	r.factories[name] = factory
}

// Create instantiates a new sampler based on the given name.
func (r *SamplerRegistry) Create(name string, prior LogPrior) (ABCSampler, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ResourceNotFound, "unknown sampler type: %s", name)
	}
	return factory(prior)
}

// List returns the names of all registered samplers.
func (r *SamplerRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
