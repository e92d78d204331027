package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfinder/internal/cli"
	"github.com/aretw0/wayfinder/internal/presentation/tui"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a medical question with retrieval-augmented generation",
	Long: `Runs the rag workflow: the question is routed to the Q&A collection, the device manual
or a web search, the context is checked for relevance (up to the configured number of
checks) and an answer is generated. Requires an LLM to be configured.`,
	Example: `  WAYFINDER_LLM_API_KEY=sk-... wayfinder ask "How often should I replace the insulin cartridge?"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		wf, err := app.Workflow(rag.Name)
		if err != nil {
			return err
		}
		rec, err := app.Runner.Run(cmd.Context(), wf, map[string]any{rag.FieldQuery: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		answer, err := rag.Decode(rec.Output)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				RunID string `json:"run_id"`
				rag.Answer
			}{rec.ID, answer})
		}
		out, err := tui.ForFile(os.Stdout)(cli.AnswerMarkdown(rec.ID, answer))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("json", false, "Print the result as JSON")
}
