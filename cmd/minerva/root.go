package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "minerva",
	Short: "Minerva - AI governance engine for healthcare agent systems",
	Long: `Minerva is a governance engine that supervises autonomous care agents
in home healthcare settings.

Every agent action passes through a governance pipeline providing:
  - Role-based access control over agents and patient records
  - Risk-tiered gates with human approval workflows
  - An append-only audit trail with configurable retention
  - Confidence-based fallback and human escalation
  - Demographic bias monitoring with compliance events`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
