package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfinder/internal/cli"
	"github.com/aretw0/wayfinder/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wayfinder",
	Short: "Wayfinder runs graph workflows for support triage and retrieval-augmented answers",
	Long: `Wayfinder executes small typed workflow graphs: nodes read an immutable view of the
state and return partial updates, edges route by closed label sets, and bounded retry
edges cap loops. It ships a support-ticket triage workflow and a medical RAG workflow,
exposed through this CLI, an HTTP API and an MCP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "wayfinder.yaml", "Path to the config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
}

// loadApp reads the config named by the persistent flags and assembles the app.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cli.NewApp(cfg)
}
