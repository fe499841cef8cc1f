package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"caretrust-hq/minerva/pkg/cli"
	"caretrust-hq/minerva/pkg/config"
	"caretrust-hq/minerva/pkg/riskgate"
)

var validateFlags struct {
	rulesFile string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and rules files",
	Long: `Validate a configuration file and any referenced governance rules file
without starting the server.

Checks performed:
  - YAML syntax and field types
  - Value ranges (thresholds, sample floors, timeouts)
  - Cron expressions for retention and bias analysis schedules
  - Rules file syntax and risk level names

Examples:
  # Validate the default config
  minerva validate

  # Validate a specific config file
  minerva validate --config /etc/minerva/config.yaml

  # Also validate a rules file not referenced by the config
  minerva validate --rules /etc/minerva/rules.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.rulesFile, "rules", "", "rules file to validate (in addition to the config's rules file)")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if err := config.Validate(cfg); err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("Configuration invalid (%d errors):\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Printf("  ✗ %s\n", fe.Error())
			}
			return cli.NewConfigError("", "validation failed")
		}
		return cli.NewConfigError("", err.Error())
	}
	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)

	rulesFiles := make([]string, 0, 2)
	if cfg.Rules.FilePath != "" {
		rulesFiles = append(rulesFiles, cfg.Rules.FilePath)
	}
	if validateFlags.rulesFile != "" && validateFlags.rulesFile != cfg.Rules.FilePath {
		rulesFiles = append(rulesFiles, validateFlags.rulesFile)
	}

	for _, path := range rulesFiles {
		rf, err := riskgate.LoadRulesFile(path)
		if err != nil {
			fmt.Printf("✗ Rules file invalid: %s\n", path)
			return cli.NewConfigError("rules.file_path", err.Error())
		}
		fmt.Printf("✓ Rules file valid: %s (%d rules)\n", path, len(rf.Rules))
	}

	return nil
}
