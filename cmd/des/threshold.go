package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/szibis/des/internal/config"
	"github.com/szibis/des/internal/des"
)

type thresholdResult struct {
	StreamSize int     `json:"stream_size"`
	Epsilon    float64 `json:"epsilon"`
	Delta      float64 `json:"delta"`
	Threshold  int     `json:"threshold"`
	Fixed      bool    `json:"fixed"`
}

func newThresholdCmd(f *flags, cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "threshold <stream-size>",
		Short: "Print the accumulator threshold for a stream size",
		Long: `Prints ceil((12 / epsilon^2) * ln(8 * stream-size / delta)), the witness set
bound used when no fixed threshold is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid stream size %q: %w", args[0], err)
			}
			c := cfg()

			res := thresholdResult{
				StreamSize: n,
				Epsilon:    c.Estimator.Epsilon,
				Delta:      c.Estimator.Delta,
				Fixed:      c.Estimator.Threshold > 0,
			}
			if res.Fixed {
				res.Threshold = c.Estimator.Threshold
			} else {
				res.Threshold, err = des.SizeThreshold(n, c.Estimator.Epsilon, c.Estimator.Delta)
				if err != nil {
					return err
				}
			}

			if f.output == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Threshold)
			return nil
		},
	}
}
