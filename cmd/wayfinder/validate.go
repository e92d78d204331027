package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfinder/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured workflows for consistency",
	Long: `Builds every workflow the config allows, re-checks entry, edges and label coverage, and
reports nodes that cannot be reached from the entry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		failed := false
		for _, name := range app.WorkflowNames() {
			report := cli.Check(app.Workflows[name])
			fmt.Fprintln(cmd.OutOrStdout(), report)
			if !report.OK() {
				failed = true
			}
		}
		for name, reason := range app.Reasons {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped: %s\n", name, reason)
		}
		if failed {
			return errors.New("validation failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Workflows are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
