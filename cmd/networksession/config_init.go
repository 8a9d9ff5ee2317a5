package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config file",
	Long:  `Generate a default networksession configuration file at ~/.config/networksession/config.yaml`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringP("output", "o", "", "output path (default: ~/.config/networksession/config.yaml)")
	configInitCmd.Flags().Bool("force", false, "overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	if output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		output = filepath.Join(home, ".config", appDir, defaultConfigFile)
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", output)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(output, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Config file created at %s\n", output)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set NETWORKSESSION_BOT_TOKEN environment variable")
	fmt.Fprintln(out, "  2. Edit the principal table and account directory")
	fmt.Fprintln(out, "  3. Validate with: networksession config validate")
	fmt.Fprintln(out, "  4. Start the server: networksession serve")

	return nil
}

const defaultConfigTemplate = `# networksession configuration

server:
  listen: "127.0.0.1:8788"
  # Requests carrying a NetworkSession credential over plain HTTP are refused.
  require_https: true
  # Reverse proxies whose X-Forwarded-For / X-Forwarded-Proto are honored.
  trusted_proxies:
    - "127.0.0.1"
    - "::1"
  # Throttle clients that keep failing authentication. 0 disables.
  auth_failure_limit:
    per_minute: 10
    burst: 20
  timeout_ms: 30000
  enable_http2: false

network_session:
  # Tenant identifier mixed into derived session IDs.
  wiki_id: "mywiki"
  # Omit to leave rights uncapped.
  allowed_rights:
    - read
    - edit
  can_always_autocreate: false
  # Entries are checked in order; more than one match is refused.
  # ip_ranges accepts addresses, low-high ranges, and CIDR blocks.
  principals:
    - username: "Bot"
      token: "${NETWORKSESSION_BOT_TOKEN}"
      ip_ranges:
        - "10.0.0.0/8"
        - "192.0.2.10-192.0.2.20"

accounts:
  autocreate: false
  default_rights:
    - read
  users:
    - name: "Bot"
      rights:
        - read
        - edit

logging:
  level: info
  format: json
  output: stdout
`
