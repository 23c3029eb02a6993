package samplers

import (
	"github.com/inferlab/abc-go/pkg/errors"
)

// Particle is one accepted parameter vector with its importance weight.
// Weights are only comparable within the generation that produced them.
type Particle struct {
	Theta  []float64
	Weight float64
}

// Population is the weighted set of particles accepted under one threshold.
// It is an append-only buffer bounded by its capacity; a new Population is
// allocated for every generation so a retired population is never aliased by
// the active one.
type Population struct {
	capacity   int
	particles  []Particle
	total      float64
	normalized bool
}

// NewPopulation creates an empty population with the given capacity.
func NewPopulation(capacity int) *Population {
	return &Population{
		capacity:  capacity,
		particles: make([]Particle, 0, capacity),
	}
}

// Append adds an accepted particle. The theta slice is stored as-is; callers
// hand over ownership.
func (p *Population) Append(theta []float64, weight float64) error {
	if p.Full() {
		return errors.WithFields(
			errors.New(errors.InvariantViolation, "append to a full population"),
			errors.Fields{"capacity": p.capacity},
		)
	}
	if p.normalized {
		return errors.New(errors.InvariantViolation, "append to a normalized population")
	}
	p.particles = append(p.particles, Particle{Theta: theta, Weight: weight})
	p.total += weight
	return nil
}

// Full reports whether the population reached its capacity.
func (p *Population) Full() bool { return len(p.particles) == p.capacity }

// Len returns the number of accepted particles so far.
func (p *Population) Len() int { return len(p.particles) }

// Capacity returns the configured population size.
func (p *Population) Capacity() int { return p.capacity }

// Particle returns the i-th particle.
func (p *Population) Particle(i int) Particle { return p.particles[i] }

// Normalize divides every weight by the total so they sum to one. It is
// called exactly once, at generation transition.
func (p *Population) Normalize() error {
	if p.normalized {
		return errors.New(errors.InvariantViolation, "population normalized twice")
	}
	if p.total <= 0 {
		return errors.WithFields(
			errors.New(errors.InvariantViolation, "population has no weight to normalize"),
			errors.Fields{"total": p.total, "len": len(p.particles)},
		)
	}
	for i := range p.particles {
		p.particles[i].Weight /= p.total
	}
	p.total = 1
	p.normalized = true
	return nil
}

// Weights returns a copy of the particle weights.
func (p *Population) Weights() []float64 {
	ws := make([]float64, len(p.particles))
	for i, pt := range p.particles {
		ws[i] = pt.Weight
	}
	return ws
}

// Values returns a copy of the particle parameter vectors.
func (p *Population) Values() [][]float64 {
	vs := make([][]float64, len(p.particles))
	for i, pt := range p.particles {
		theta := make([]float64, len(pt.Theta))
		copy(theta, pt.Theta)
		vs[i] = theta
	}
	return vs
}
