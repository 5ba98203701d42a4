package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szibis/des/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Check a configuration file and report problems as JSON",
		Args:  cobra.ExactArgs(1),
		// The file under test may be invalid, so skip the shared config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			result := config.ValidateFile(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), result.JSON())
			if !result.Valid {
				return fmt.Errorf("configuration %s is invalid", args[0])
			}
			return nil
		},
	}
}
