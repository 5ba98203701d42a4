package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/szibis/des/internal/config"
	"github.com/szibis/des/internal/trials"
)

func newTrialsCmd(f *flags, cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trials [corpus]",
		Short: "Run the estimator over a corpus with many seeds and summarize accuracy",
		Long: `Runs trials.count estimators over the same corpus, seeded base_seed,
base_seed+1, ..., at most trials.parallelism at a time, and reports the mean,
minimum and maximum accuracy against the exact distinct count.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if len(args) == 1 {
				c.Corpus.Path = args[0]
			}

			ms, err := startMetricsServer(c.Metrics.Addr, time.Duration(c.Metrics.ShutdownTimeout))
			if err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			defer ms.Shutdown()

			corp, err := loadCorpus(c, ms.Health())
			if err != nil {
				return err
			}

			report, err := trials.Run(cmd.Context(), corp.Tokens, c.TrialsConfig())
			if err != nil {
				return err
			}
			if !f.perTrial {
				report.Trials = nil
			}

			if f.output == "json" {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.count, "count", "n", 0, "number of trials")
	fl.IntVarP(&f.parallelism, "parallelism", "p", 0, "concurrent trials (0 = GOMAXPROCS)")
	fl.Uint64Var(&f.baseSeed, "base-seed", 0, "seed of the first trial")
	fl.BoolVar(&f.perTrial, "per-trial", false, "include every trial in the report")
	addCorpusFlags(cmd, f)
	return cmd
}

func printReport(w io.Writer, r *trials.Report) {
	fmt.Fprintf(w, "tokens:            %d\n", r.Tokens)
	fmt.Fprintf(w, "distinct:          %d\n", r.Distinct)
	fmt.Fprintf(w, "threshold:         %d\n", r.Threshold)
	fmt.Fprintf(w, "mean accuracy:     %.4f\n", r.MeanAccuracy)
	fmt.Fprintf(w, "min accuracy:      %.4f\n", r.MinAccuracy)
	fmt.Fprintf(w, "max accuracy:      %.4f\n", r.MaxAccuracy)
	fmt.Fprintf(w, "mean downsamples:  %.2f\n", r.MeanDownsamples)
	fmt.Fprintf(w, "overflows:         %d\n", r.Overflows)
	fmt.Fprintf(w, "mean duration:     %s\n", r.MeanDuration)
	for _, tr := range r.Trials {
		fmt.Fprintf(w, "seed %-10d estimate %-8d downsamples %-3d accuracy %.4f overflow %t\n",
			tr.Seed, tr.Estimate, tr.Downsamples, tr.Accuracy, tr.Overflow)
	}
}
