// abcinfer runs approximate Bayesian inference from a YAML configuration,
// using a single-rate exponential decay model as the built-in forward model.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/inferlab/abc-go/pkg/config"
	"github.com/inferlab/abc-go/pkg/controller"
	"github.com/inferlab/abc-go/pkg/core"
	"github.com/inferlab/abc-go/pkg/diagnostics"
	"github.com/inferlab/abc-go/pkg/logging"
	"github.com/inferlab/abc-go/pkg/measures"
	"github.com/inferlab/abc-go/pkg/priors"
	"github.com/inferlab/abc-go/pkg/samplers"
	"github.com/inferlab/abc-go/pkg/store"
)

var rootCmd = &cobra.Command{
	Use:   "abcinfer",
	Short: "Likelihood-free Bayesian inference with ABC samplers",
	Long: `abcinfer runs approximate Bayesian computation over a built-in
exponential decay model: observe a noiseless decay curve, then recover the
decay rate with ABC-SMC or plain ABC rejection.

Configure the run with a YAML file (sampler, threshold schedule, population
size, persistence) and inspect stored runs afterwards.`,
	Version: "0.1.0",
}

func main() {
	rootCmd.AddCommand(newRunCmd(), newRunsCmd(), newShowCmd(), newSamplersCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSamplersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samplers",
		Short: "List available sampling strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := samplers.NewRegistry()
			names := registry.List()
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// decayModel evaluates exp(-rate*t) on a fixed time grid.
func decayModel(times []float64) core.Simulator {
	return func(theta []float64) ([]float64, error) {
		out := make([]float64, len(times))
		for i, t := range times {
			out[i] = math.Exp(-theta[0] * t)
		}
		return out, nil
	}
}

func timeGrid(n int, horizon float64) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = horizon * float64(i) / float64(n-1)
	}
	return times
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		trueRate   float64
		lower      float64
		upper      float64
		points     int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run inference on the decay model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}

			if !(lower < upper) {
				return fmt.Errorf("rate bounds must satisfy lower < upper, got [%g, %g]", lower, upper)
			}
			if points < 2 {
				return fmt.Errorf("need at least two observation points, got %d", points)
			}

			times := timeGrid(points, 10)
			simulate := decayModel(times)
			observed, err := simulate([]float64{trueRate})
			if err != nil {
				return err
			}

			measure, err := measures.NewRootMeanSquaredError(observed, simulate)
			if err != nil {
				return err
			}

			seed := cfg.Run.Seed
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			prior, err := priors.NewUniform(
				[]float64{lower}, []float64{upper}, rand.NewSource(seed))
			if err != nil {
				return err
			}

			ctrl, err := controller.FromConfig(cfg, prior, measures.Func(measure))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := ctrl.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("run %s: %d accepted samples in %d iterations\n",
				result.RunID, len(result.Accepted), result.Iterations)
			if result.FinalPopulation != nil {
				printPopulation(result.FinalPopulation)
				fmt.Printf("true rate: %g\n", trueRate)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML run configuration")
	cmd.Flags().Float64Var(&trueRate, "true-rate", 0.1, "decay rate used to generate the observed data")
	cmd.Flags().Float64Var(&lower, "lower", 0, "lower bound of the uniform rate prior")
	cmd.Flags().Float64Var(&upper, "upper", 0.3, "upper bound of the uniform rate prior")
	cmd.Flags().IntVar(&points, "points", 20, "number of observation points on [0, 10]")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored inference runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no stored runs")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%s  %-13s  %s\n",
					r.ID, r.Sampler, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "abc-runs.db", "path to the run database")
	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		dbPath     string
		generation int
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Summarize a stored population",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			particles, err := st.LoadGeneration(args[0], generation)
			if err != nil {
				return err
			}

			pop := samplers.NewPopulation(len(particles))
			for _, p := range particles {
				if err := pop.Append(p.Theta, p.Weight); err != nil {
					return err
				}
			}
			printPopulation(pop)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "abc-runs.db", "path to the run database")
	cmd.Flags().IntVar(&generation, "generation", 0, "generation index to summarize")
	return cmd
}

func printPopulation(pop *samplers.Population) {
	summaries, err := diagnostics.Summarize(pop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summary failed: %v\n", err)
		return
	}
	ess, err := diagnostics.EffectiveSampleSize(pop.Weights())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ess failed: %v\n", err)
		return
	}

	fmt.Printf("population: %d particles, effective sample size %.1f\n", pop.Len(), ess)
	for d, s := range summaries {
		fmt.Printf("  theta[%d]: mean=%.6g stddev=%.3g range=[%.6g, %.6g]\n",
			d, s.Mean, s.StdDev, s.Min, s.Max)
	}
}

func setupLogging(cfg *config.Config) error {
	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.Logging.File != "" {
		fileOut, err := logging.NewFileOutput(cfg.Logging.File)
		if err != nil {
			return err
		}
		outputs = append(outputs, fileOut)
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  outputs,
	}))
	return nil
}
