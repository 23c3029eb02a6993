// Package abc is a Go toolkit for likelihood-free Bayesian inference with
// approximate Bayesian computation (ABC).
//
// ABC replaces likelihood evaluation with simulation: candidate parameters
// are drawn from a prior, pushed through a forward simulator, and kept when
// the simulated output lands close enough to the observed data. The toolkit
// separates proposal generation from model evaluation through an ask/tell
// protocol, so callers own the simulator and can evaluate batches wherever
// and however they like.
//
// Key Components:
//
//   - Core: the LogPrior, ABCSampler, DistanceFunc and Simulator contracts
//     shared by every package, plus the sampler registry.
//
//   - Samplers: the ask/tell sampling strategies:
//     ABC-SMC: sequential Monte Carlo over a decreasing threshold schedule,
//     with weighted resampling, kernel perturbation and importance
//     reweighting between generations.
//     ABC-Rejection: plain rejection sampling at a fixed threshold.
//
//   - Priors: gonum-backed log-prior distributions (uniform, gaussian,
//     multivariate gaussian) and a product prior for composing independent
//     marginals into one parameter space.
//
//   - Measures: scalar discrepancy functions (RMSE, MSE, sum of squares)
//     built from observed data and a caller-supplied simulator.
//
//   - Evaluation: sequential and bounded-concurrency batch evaluators that
//     map proposals to distances between an Ask and the matching Tell.
//
//   - Diagnostics: effective sample size and weighted posterior summaries
//     for accepted populations.
//
//   - Controller: the run loop that drives ask/evaluate/tell to a target
//     sample count, with structured logging and optional SQLite persistence
//     of completed populations.
//
// A minimal run looks like:
//
//	prior, _ := priors.NewUniform([]float64{0}, []float64{0.3}, rand.NewSource(1))
//	kernel, _ := priors.NewGaussianKernel(1, 0.001, rand.NewSource(2))
//	smc, _ := samplers.NewABCSMC(prior, samplers.WithTransitionKernel(kernel))
//	_ = smc.SetThresholdSchedule([]float64{6, 4, 2})
//	_ = smc.SetIntermediateSize(100)
//
//	for !smc.Finished() {
//		thetas, _ := smc.Ask(10)
//		distances := make([]float64, len(thetas))
//		for i, theta := range thetas {
//			distances[i], _ = measure.Distance(theta)
//		}
//		smc.Tell(distances)
//	}
//	posterior := smc.FinalPopulation()
//
// The cmd/abcinfer command wraps the same pieces behind a YAML-configured
// CLI with a built-in exponential decay demo model.
package abc
