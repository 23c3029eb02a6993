// Package controller drives the ask/evaluate/tell loop around a sampler
// until a target number of accepted samples has been collected or the
// sampler's schedule is exhausted.
package controller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/inferlab/abc-go/pkg/config"
	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/errors"
	"github.com/inferlab/abc-go/pkg/evaluation"
	"github.com/inferlab/abc-go/pkg/logging"
	"github.com/inferlab/abc-go/pkg/priors"
	"github.com/inferlab/abc-go/pkg/samplers"
	"github.com/inferlab/abc-go/pkg/store"
)

const defaultMaxIterations = 1_000_000

// Controller owns one inference run.
type Controller struct {
	sampler   core.ABCSampler
	distance  core.DistanceFunc
	evaluator evaluation.Evaluator
	logger    *logging.Logger
	store     *store.SQLiteStore

	batchSize     int
	targetSamples int
	maxIterations int
}

// Result is the outcome of a completed run.
type Result struct {
	RunID      string
	Accepted   [][]float64
	Iterations int

	// FinalPopulation is the last completed generation for SMC runs that
	// consumed their schedule, nil otherwise.
	FinalPopulation *samplers.Population
}

// Option configures a Controller.
type Option func(*Controller)

// WithEvaluator replaces the default sequential evaluator.
func WithEvaluator(ev evaluation.Evaluator) Option {
	return func(c *Controller) { c.evaluator = ev }
}

// WithLogger replaces the default global logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStore enables persistence of the run and its final population.
func WithStore(s *store.SQLiteStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithBatchSize sets the number of proposals per ask.
func WithBatchSize(n int) Option {
	return func(c *Controller) { c.batchSize = n }
}

// WithTargetSamples stops the run once this many accepted samples have been
// collected, even if the sampler could continue.
func WithTargetSamples(n int) Option {
	return func(c *Controller) { c.targetSamples = n }
}

// WithMaxIterations bounds the number of ask/tell iterations.
func WithMaxIterations(n int) Option {
	return func(c *Controller) { c.maxIterations = n }
}

// New creates a controller for the given sampler and distance function.
func New(sampler core.ABCSampler, distance core.DistanceFunc, opts ...Option) (*Controller, error) {
	if sampler == nil {
		return nil, errors.New(errors.InvalidConfiguration, "a sampler is required")
	}
	if distance == nil {
		return nil, errors.New(errors.InvalidConfiguration, "a distance function is required")
	}

	c := &Controller{
		sampler:       sampler,
		distance:      distance,
		evaluator:     evaluation.Sequential{},
		logger:        logging.GetLogger(),
		batchSize:     1,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.batchSize <= 0 {
		return nil, errors.New(errors.InvalidConfiguration, "batch size must be positive")
	}
	if c.maxIterations <= 0 {
		return nil, errors.New(errors.InvalidConfiguration, "max iterations must be positive")
	}
	return c, nil
}

// FromConfig builds a fully wired controller from a run configuration: the
// sampler (with kernel and seed), the evaluator, and optionally the store.
// The prior and the distance function remain caller-supplied.
func FromConfig(cfg *config.Config, prior core.LogPrior, distance core.DistanceFunc) (*Controller, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := core.ValidatePrior(prior); err != nil {
		return nil, err
	}

	// Zero means time-seeded, matching the sampler's own rng behavior.
	seed := cfg.Run.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var sampler core.ABCSampler
	switch cfg.Run.Sampler {
	case "ABC-SMC":
		opts := []samplers.Option{samplers.WithSeed(seed)}
		if cfg.Run.KernelVariance > 0 {
			kernel, err := priors.NewGaussianKernel(
				prior.NParameters(), cfg.Run.KernelVariance, rand.NewSource(seed))
			if err != nil {
				return nil, err
			}
			opts = append(opts, samplers.WithTransitionKernel(kernel))
		}
		smc, err := samplers.NewABCSMC(prior, opts...)
		if err != nil {
			return nil, err
		}
		if err := smc.SetIntermediateSize(cfg.Run.IntermediateSize); err != nil {
			return nil, err
		}
		if err := smc.SetThresholdSchedule(cfg.Run.ThresholdSchedule); err != nil {
			return nil, err
		}
		sampler = smc
	case "ABC-Rejection":
		rej, err := samplers.NewABCRejection(prior)
		if err != nil {
			return nil, err
		}
		if err := rej.SetThreshold(cfg.Run.ThresholdSchedule[0]); err != nil {
			return nil, err
		}
		sampler = rej
	default:
		return nil, errors.Newf(errors.ResourceNotFound, "unknown sampler type: %s", cfg.Run.Sampler)
	}

	ctrlOpts := []Option{
		WithBatchSize(max(cfg.Run.BatchSize, 1)),
		WithTargetSamples(cfg.Run.TargetSamples),
	}
	if cfg.Run.MaxIterations > 0 {
		ctrlOpts = append(ctrlOpts, WithMaxIterations(cfg.Run.MaxIterations))
	}
	if cfg.Run.Workers > 0 {
		ctrlOpts = append(ctrlOpts, WithEvaluator(evaluation.NewParallel(cfg.Run.Workers)))
	}
	if cfg.Storage.Enabled {
		st, err := store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		ctrlOpts = append(ctrlOpts, WithStore(st))
	}

	return New(sampler, distance, ctrlOpts...)
}

// Run executes the ask/evaluate/tell loop to completion.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	runID, err := c.beginRun()
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, runID)

	smc, isSMC := c.sampler.(*samplers.ABCSMC)
	c.logger.Info(ctx, "starting %s run: batch=%d target=%d",
		c.sampler.Name(), c.batchSize, c.targetSamples)

	result := &Result{RunID: runID}
	lastGeneration := 0

	for result.Iterations < c.maxIterations {
		if err := errors.CheckContext(ctx, "inference run"); err != nil {
			return nil, err
		}
		if c.targetSamples > 0 && len(result.Accepted) >= c.targetSamples {
			break
		}
		if isSMC && smc.Finished() {
			break
		}

		xs, err := c.sampler.Ask(c.batchSize)
		if err != nil {
			if errors.HasCode(err, errors.SamplerExhausted) {
				break
			}
			return nil, err
		}

		ds, err := c.evaluator.Evaluate(ctx, xs, c.distance)
		if err != nil {
			return nil, err
		}

		accepted, err := c.sampler.Tell(ds)
		if err != nil {
			return nil, err
		}
		result.Accepted = append(result.Accepted, accepted...)
		result.Iterations++

		if isSMC && smc.Generation() > lastGeneration {
			c.logGenerations(ctx, smc, lastGeneration)
			lastGeneration = smc.Generation()
		}
	}

	if isSMC && smc.Finished() {
		result.FinalPopulation = smc.FinalPopulation()
	}

	if err := c.persist(result, smc, isSMC); err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "run complete: accepted=%d iterations=%d",
		len(result.Accepted), result.Iterations)
	return result, nil
}

func (c *Controller) beginRun() (string, error) {
	if c.store == nil {
		return uuid.NewString(), nil
	}
	return c.store.CreateRun(c.sampler.Name(), map[string]interface{}{
		"batch_size":     c.batchSize,
		"target_samples": c.targetSamples,
	})
}

// logGenerations reports every generation completed since the last check.
func (c *Controller) logGenerations(ctx context.Context, smc *samplers.ABCSMC, since int) {
	for _, st := range smc.Stats() {
		if st.Generation >= since && st.Generation < smc.Generation() {
			c.logger.GenerationDone(logging.WithGeneration(ctx, st.Generation),
				st.Generation, st.Threshold,
				&logging.RunInfo{Proposed: st.Proposed, Accepted: st.Accepted})
		}
	}
}

func (c *Controller) persist(result *Result, smc *samplers.ABCSMC, isSMC bool) error {
	if c.store == nil || !isSMC || result.FinalPopulation == nil {
		return nil
	}
	return c.store.SaveGeneration(result.RunID, smc.Generation()-1, result.FinalPopulation)
}
