package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration file without starting the server.
Checks syntax and required fields, then reports principal entries that
would fail or never match at request time.`,
	RunE: runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := configPath()

	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(out, "✗ Config validation failed: %s\n", err)
		return err
	}

	fatal := 0
	for _, p := range cfg.PrincipalProblems() {
		if p.Fatal {
			fatal++
			fmt.Fprintf(out, "✗ %s\n", p)
			continue
		}
		fmt.Fprintf(out, "! %s\n", p)
	}
	if fatal > 0 {
		return fmt.Errorf("%d principal entries are invalid", fatal)
	}

	fmt.Fprintf(out, "✓ %s is valid\n", path)
	return nil
}

// loadConfig loads and validates the config at path.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
