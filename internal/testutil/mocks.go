// Package testutil provides deterministic test doubles shared by the
// package tests.
package testutil

import (
	"math"
	"sync/atomic"

	"github.com/inferlab/abc-go/pkg/core"
)

// ScriptedPrior replays a fixed sequence of parameter vectors, cycling when
// the script runs out. Its density is uniform over the whole space unless a
// custom LogPDFFn is installed.
type ScriptedPrior struct {
	Dim      int
	Script   [][]float64
	LogPDFFn func(theta []float64) float64

	next int
}

var _ core.LogPrior = (*ScriptedPrior)(nil)

func (p *ScriptedPrior) LogPDF(theta []float64) float64 {
	if p.LogPDFFn != nil {
		return p.LogPDFFn(theta)
	}
	if len(theta) != p.Dim {
		return math.Inf(-1)
	}
	return 0
}

func (p *ScriptedPrior) Sample(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		src := p.Script[p.next%len(p.Script)]
		p.next++
		theta := make([]float64, len(src))
		copy(theta, src)
		out[i] = theta
	}
	return out
}

func (p *ScriptedPrior) NParameters() int { return p.Dim }

// CountingDistance wraps a distance function and counts invocations; safe
// for concurrent use.
type CountingDistance struct {
	Fn    core.DistanceFunc
	calls atomic.Int64
}

func (c *CountingDistance) Distance(theta []float64) (float64, error) {
	c.calls.Add(1)
	return c.Fn(theta)
}

func (c *CountingDistance) Calls() int64 { return c.calls.Load() }
