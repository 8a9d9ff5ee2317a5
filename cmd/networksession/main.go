// Package main is the entry point for networksession.
package main

import (
	"context"
	"os"
	"path/filepath"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "config.yaml"
	appDir            = "networksession"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "networksession",
	Short: "Token and source-address authentication for trusted network clients",
	Long: `networksession authenticates requests that carry an
"Authorization: NetworkSession <token>" header against a table of principals,
each bound to a token and the address ranges it may connect from.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/"+appDir+"/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

// configPath returns the --config flag or the first default location that exists.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", appDir, defaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return defaultConfigFile // Default, will error if not found
}
