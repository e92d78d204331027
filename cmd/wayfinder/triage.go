package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfinder/internal/cli"
	"github.com/aretw0/wayfinder/internal/presentation/tui"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

var triageCmd = &cobra.Command{
	Use:   "triage [message]",
	Short: "Triage a customer support message",
	Long: `Runs the support workflow: sentiment, category and priority are classified, then the
ticket is auto-resolved, answered or escalated to a human.`,
	Example: `  wayfinder triage --user u-42 "I was charged twice, please refund"
  wayfinder triage --user u-42 --context "$(cat history.txt)" "still broken"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		history, _ := cmd.Flags().GetString("context")
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		wf, err := app.Workflow(support.Name)
		if err != nil {
			return err
		}
		input, err := support.Input(userID, strings.Join(args, " "), history)
		if err != nil {
			return err
		}
		rec, err := app.Runner.Run(cmd.Context(), wf, input)
		if err != nil {
			return err
		}
		ticket, err := support.Decode(rec.Output)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				RunID string `json:"run_id"`
				support.Ticket
			}{rec.ID, ticket})
		}
		out, err := tui.ForFile(os.Stdout)(cli.TicketMarkdown(rec.ID, ticket))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triageCmd)
	triageCmd.Flags().StringP("user", "u", "cli", "User identifier")
	triageCmd.Flags().String("context", "", "Previous conversation, one entry per line")
	triageCmd.Flags().Bool("json", false, "Print the result as JSON")
}
