package priors

import (
	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
)

// Composed is a product prior over independent sub-priors. Its dimensionality
// is the sum of the sub-priors' dimensionalities and its density factorizes
// across them.
type Composed struct {
	parts []core.LogPrior
	dim   int
}

// NewComposed creates a product prior from the given sub-priors.
func NewComposed(parts ...core.LogPrior) (*Composed, error) {
	if len(parts) == 0 {
		return nil, errors.New(errors.InvalidConfiguration, "composed prior needs at least one sub-prior")
	}
	dim := 0
	for i, p := range parts {
		if err := core.ValidatePrior(p); err != nil {
			return nil, errors.WithFields(err, errors.Fields{"sub_prior": i})
		}
		dim += p.NParameters()
	}
	return &Composed{parts: parts, dim: dim}, nil
}

func (c *Composed) LogPDF(theta []float64) float64 {
	if len(theta) != c.dim {
		return negInf
	}
	var sum float64
	offset := 0
	for _, p := range c.parts {
		d := p.NParameters()
		sum += p.LogPDF(theta[offset : offset+d])
		offset += d
	}
	return sum
}

func (c *Composed) Sample(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, 0, c.dim)
	}
	for _, p := range c.parts {
		block := p.Sample(n)
		for i := range out {
			out[i] = append(out[i], block[i]...)
		}
	}
	return out
}

func (c *Composed) NParameters() int { return c.dim }
