// Package samplers implements the toolkit's approximate Bayesian computation
// samplers behind the ask/tell protocol defined in pkg/core.
package samplers

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
)

// Mode selects the proposal strategy for generations after the first.
type Mode int

const (
	// RejectionMode draws every generation directly from the prior: plain
	// rejection sampling at a decreasing threshold, no reweighting and no
	// perturbation. Selected when no transition kernel is configured.
	RejectionMode Mode = iota

	// SequentialImportanceMode perturbs particles of the previous
	// generation with the transition kernel and corrects the induced bias
	// with importance weights.
	SequentialImportanceMode
)

const (
	defaultIntermediateSize = 100
)

// GenerationStats records proposal throughput for one generation.
type GenerationStats struct {
	Generation int
	Threshold  float64
	Proposed   int
	Accepted   int
}

// pendingBatch is the buffer of proposals issued by Ask that have not yet
// been resolved by Tell. At most one exists at a time.
type pendingBatch struct {
	generation int
	thetas     [][]float64
	sources    []int // previous-population indices, SequentialImportanceMode only
}

// ABCSMC is the ABC sequential Monte Carlo sampler: a generation-based
// particle algorithm driven through ask/tell. Proposals for generation zero
// come from the prior; later generations resample the previous population by
// weight and perturb with the transition kernel, with the standard
// sequential-importance-sampling weight correction.
//
// The sampler is synchronous and performs no internal parallelism; it is not
// safe for concurrent use without external mutual exclusion.
type ABCSMC struct {
	prior  core.LogPrior
	kernel core.LogPrior
	mode   Mode
	dim    int
	rng    *rand.Rand

	schedule         []float64
	intermediateSize int

	generation int
	exhausted  bool
	prev       *Population // previous generation, normalized
	cur        *Population // growing current generation
	final      *Population // last completed generation once exhausted
	sourceDist *distuv.Categorical

	pending *pendingBatch
	stats   []GenerationStats
}

var _ core.ABCSampler = (*ABCSMC)(nil)

type smcOptions struct {
	kernel core.LogPrior
	seed   uint64
	seeded bool
}

// Option configures an ABCSMC sampler at construction.
type Option func(*smcOptions)

// WithTransitionKernel supplies the perturbation kernel and switches the
// sampler into SequentialImportanceMode.
func WithTransitionKernel(kernel core.LogPrior) Option {
	return func(o *smcOptions) {
		o.kernel = kernel
	}
}

// WithSeed fixes the seed of the sampler's internal random source, used for
// weighted source-particle selection. Full run determinism also requires
// deterministic prior and kernel sources.
func WithSeed(seed uint64) Option {
	return func(o *smcOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// NewABCSMC creates an ABC-SMC sampler over the given prior. Without a
// transition kernel the sampler runs in RejectionMode.
func NewABCSMC(prior core.LogPrior, opts ...Option) (*ABCSMC, error) {
	if err := core.ValidatePrior(prior); err != nil {
		return nil, err
	}

	var o smcOptions
	for _, opt := range opts {
		opt(&o)
	}

	mode := RejectionMode
	if o.kernel != nil {
		if err := core.ValidateKernel(prior, o.kernel); err != nil {
			return nil, err
		}
		mode = SequentialImportanceMode
	}

	seed := o.seed
	if !o.seeded {
		seed = uint64(time.Now().UnixNano())
	}

	s := &ABCSMC{
		prior:            prior,
		kernel:           o.kernel,
		mode:             mode,
		dim:              prior.NParameters(),
		rng:              rand.New(rand.NewSource(seed)),
		schedule:         []float64{1},
		intermediateSize: defaultIntermediateSize,
	}
	s.cur = NewPopulation(s.intermediateSize)
	return s, nil
}

// Name returns the sampler's display name.
func (s *ABCSMC) Name() string { return "ABC-SMC" }

// Mode returns the proposal strategy selected at construction.
func (s *ABCSMC) Mode() Mode { return s.mode }

// SetIntermediateSize sets the population size per generation. It must be
// called before sampling starts.
func (s *ABCSMC) SetIntermediateSize(n int) error {
	if n <= 0 {
		return errors.WithFields(
			errors.New(errors.InvalidConfiguration, "intermediate size must be a positive integer"),
			errors.Fields{"n": n},
		)
	}
	if s.active() {
		return errors.New(errors.InvalidConfiguration, "cannot resize an active sampler")
	}
	s.intermediateSize = n
	s.cur = NewPopulation(n)
	return nil
}

// IntermediateSize returns the configured population size per generation.
func (s *ABCSMC) IntermediateSize() int { return s.intermediateSize }

// SetThresholdSchedule sets the ordered sequence of generation thresholds.
// Every entry must be strictly positive; the sampler does not require the
// schedule to be non-increasing, that is left to the caller. It must be
// called before sampling starts.
func (s *ABCSMC) SetThresholdSchedule(thresholds []float64) error {
	if len(thresholds) == 0 {
		return errors.New(errors.InvalidConfiguration, "threshold schedule must not be empty")
	}
	for i, t := range thresholds {
		if !(t > 0) {
			return errors.WithFields(
				errors.New(errors.InvalidConfiguration, "threshold schedule entries must be positive"),
				errors.Fields{"index": i, "value": t},
			)
		}
	}
	if s.active() {
		return errors.New(errors.InvalidConfiguration, "cannot reschedule an active sampler")
	}
	s.schedule = make([]float64, len(thresholds))
	copy(s.schedule, thresholds)
	return nil
}

// ThresholdSchedule returns a copy of the configured schedule.
func (s *ABCSMC) ThresholdSchedule() []float64 {
	out := make([]float64, len(s.schedule))
	copy(out, s.schedule)
	return out
}

// Generation returns the index of the generation currently being filled.
func (s *ABCSMC) Generation() int { return s.generation }

// Finished reports whether the full threshold schedule has been consumed.
func (s *ABCSMC) Finished() bool { return s.exhausted }

// FinalPopulation returns the last completed generation's population, or nil
// while the sampler is still running.
func (s *ABCSMC) FinalPopulation() *Population {
	if !s.exhausted {
		return nil
	}
	return s.final
}

// Stats returns per-generation acceptance statistics, including the
// generation currently in progress.
func (s *ABCSMC) Stats() []GenerationStats {
	out := make([]GenerationStats, len(s.stats))
	copy(out, s.stats)
	return out
}

// active reports whether sampling has started: configuration is frozen from
// the first Ask onward.
func (s *ABCSMC) active() bool {
	return s.pending != nil || s.generation > 0 || s.cur.Len() > 0 || s.exhausted
}

// Ask requests n candidate parameter vectors and stores them as the pending
// batch. The returned vectors are copies; mutating them does not affect the
// sampler.
func (s *ABCSMC) Ask(n int) ([][]float64, error) {
	if s.exhausted {
		return nil, errors.New(errors.SamplerExhausted, "ask called after the final generation completed")
	}
	if s.pending != nil {
		return nil, errors.New(errors.ProtocolViolation, "ask called while a previous ask is outstanding")
	}
	if n <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "ask requires a positive batch size"),
			errors.Fields{"n": n},
		)
	}

	var (
		thetas  [][]float64
		sources []int
	)
	if s.generation == 0 || s.mode == RejectionMode {
		thetas = s.prior.Sample(n)
		if len(thetas) != n {
			return nil, errors.WithFields(
				errors.New(errors.InvariantViolation, "prior returned a malformed sample batch"),
				errors.Fields{"want": n, "got": len(thetas)},
			)
		}
	} else {
		thetas = make([][]float64, n)
		sources = make([]int, n)
		for i := 0; i < n; i++ {
			thetas[i], sources[i] = s.perturb()
		}
	}

	s.pending = &pendingBatch{
		generation: s.generation,
		thetas:     thetas,
		sources:    sources,
	}
	return copyBatch(thetas), nil
}

// perturb draws one proposal for a generation beyond the first: select a
// source particle by weight, add one kernel increment, and redraw until the
// result has nonzero prior density.
func (s *ABCSMC) perturb() (theta []float64, source int) {
	for {
		source = int(s.sourceDist.Rand())
		increment := s.kernel.Sample(1)[0]
		theta = make([]float64, s.dim)
		floats.AddTo(theta, s.prev.Particle(source).Theta, increment)
		if !math.IsInf(s.prior.LogPDF(theta), -1) {
			return theta, source
		}
	}
}

// Tell resolves the pending batch with one distance per proposal. A proposal
// is accepted iff its distance is strictly below the current generation's
// threshold. Tell returns the accepted vectors of this batch, nil when none
// were accepted. A distance above every schedule entry is a normal outcome,
// never an error.
func (s *ABCSMC) Tell(distances []float64) ([][]float64, error) {
	if s.pending == nil {
		return nil, errors.New(errors.ProtocolViolation, "tell called with no matching ask")
	}
	batch := s.pending
	if len(distances) != len(batch.thetas) {
		// Precondition failure: the batch stays pending so the caller can
		// retry with a matching slice.
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "tell requires one distance per pending proposal"),
			errors.Fields{"pending": len(batch.thetas), "got": len(distances)},
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
	s.pending = nil

	threshold := s.schedule[batch.generation]
	st := s.statsFor(batch.generation, threshold)

	var accepted [][]float64
	advanced := false
	for i, d := range distances {
		st.Proposed++
		if advanced {
			// The population filled earlier in this batch; the remaining
			// proposals were drawn against a retired threshold.
			continue
		}
		if !(d < threshold) {
			continue
		}

		weight := 1.0
		if s.mode == SequentialImportanceMode && batch.generation > 0 {
			w, err := s.reweight(batch.thetas[i])
			if err != nil {
				return nil, err
			}
			weight = w
		}

		if err := s.cur.Append(batch.thetas[i], weight); err != nil {
			return nil, err
		}
		st.Accepted++
		accepted = append(accepted, copyVector(batch.thetas[i]))

		if s.cur.Full() {
			if err := s.advance(); err != nil {
				return nil, err
			}
			advanced = true
		}
	}

	if len(accepted) == 0 {
		return nil, nil
	}
	return accepted, nil
}

// TellOne is a convenience for single-proposal batches.
func (s *ABCSMC) TellOne(distance float64) ([][]float64, error) {
	return s.Tell([]float64{distance})
}

// reweight computes the unnormalized importance weight of an accepted
// proposal:
//
//	w(theta') = pi(theta') / sum_j w_j * K(theta' - theta_j)
//
// with the sum over the whole previous, normalized population. Proposals are
// drawn from the mixture induced by that population and the kernel, not from
// the prior; without this correction the posterior approximation would be
// biased toward regions already well sampled.
func (s *ABCSMC) reweight(theta []float64) (float64, error) {
	logPrior := s.prior.LogPDF(theta)
	if math.IsInf(logPrior, -1) {
		// Zero-density proposals must have been redrawn at the ask stage.
		return 0, errors.New(errors.InvariantViolation, "zero prior density reached the reweighting engine")
	}

	delta := make([]float64, s.dim)
	denom := 0.0
	for j := 0; j < s.prev.Len(); j++ {
		p := s.prev.Particle(j)
		floats.SubTo(delta, theta, p.Theta)
		denom += p.Weight * math.Exp(s.kernel.LogPDF(delta))
	}
	if denom <= 0 {
		return 0, errors.WithFields(
			errors.New(errors.InvariantViolation, "kernel mixture density vanished during reweighting"),
			errors.Fields{"generation": s.generation},
		)
	}
	return math.Exp(logPrior) / denom, nil
}

// advance normalizes the completed population and moves to the next
// generation, or marks the sampler exhausted after the last one. The
// completed population replaces the previous one by reference.
func (s *ABCSMC) advance() error {
	if err := s.cur.Normalize(); err != nil {
		return err
	}

	completed := s.cur
	s.generation++

	if s.generation >= len(s.schedule) {
		s.exhausted = true
		s.final = completed
		s.prev = completed
		s.cur = nil
		s.sourceDist = nil
		return nil
	}

	s.prev = completed
	s.cur = NewPopulation(s.intermediateSize)
	if s.mode == SequentialImportanceMode {
		dist := distuv.NewCategorical(s.prev.Weights(), s.rng)
		s.sourceDist = &dist
	}
	return nil
}

// statsFor returns the mutable stats record for a generation, creating it on
// first use.
func (s *ABCSMC) statsFor(generation int, threshold float64) *GenerationStats {
	for i := range s.stats {
		if s.stats[i].Generation == generation {
			return &s.stats[i]
		}
	}
	s.stats = append(s.stats, GenerationStats{Generation: generation, Threshold: threshold})
	return &s.stats[len(s.stats)-1]
}

func copyVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func copyBatch(b [][]float64) [][]float64 {
	out := make([][]float64, len(b))
	for i, v := range b {
		out[i] = copyVector(v)
	}
	return out
}
