package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/identity"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a credential against the principal table",
	Long: `Evaluate a token or a raw Authorization header from a source address
against the configured principal table, without starting the server.
Exits non-zero unless the credential authenticates.`,
	Example: `  networksession check --ip 10.1.2.3 --token s3cret
  networksession check --ip 10.1.2.3 --header "NetworkSession s3cret"`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("ip", "", "source address of the request (required)")
	checkCmd.Flags().String("token", "", "token to evaluate")
	checkCmd.Flags().String("header", "", "raw Authorization header value to evaluate")
	checkCmd.MarkFlagsMutuallyExclusive("token", "header")
	_ = checkCmd.MarkFlagRequired("ip")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ip, err := cmd.Flags().GetString("ip")
	if err != nil {
		return fmt.Errorf("failed to get ip flag: %w", err)
	}

	cfg, err := loadConfig(configPath())
	if err != nil {
		return err
	}

	engine := auth.NewEngine(cfg.NetworkSession.WikiID, cfg.NetworkSession.Principals())

	var outcome auth.Outcome
	switch {
	case cmd.Flags().Changed("header"):
		header, _ := cmd.Flags().GetString("header")
		outcome = engine.Authenticate(mo.Some(header), ip)
	case cmd.Flags().Changed("token"):
		token, _ := cmd.Flags().GetString("token")
		outcome = engine.Evaluate(mo.Some(token), ip)
	default:
		outcome = engine.Evaluate(mo.None[string](), ip)
	}

	out := cmd.OutOrStdout()
	printOutcome(out, outcome)

	if outcome.Decision != auth.DecisionAuthenticated {
		if err := outcome.Err(); err != nil {
			return err
		}
		return auth.ErrNoCredential
	}

	id, err := identity.NewBinderFromConfig(cfg).Bind(auth.Result{Type: auth.TypeNetworkSession, Outcome: outcome})
	if err != nil {
		if errors.Is(err, identity.ErrNoAccount) {
			fmt.Fprintln(out, "account:    none (autocreate disabled)")
		}
		return err
	}

	fmt.Fprintf(out, "rights:     %v\n", id.Rights)
	if id.Ephemeral {
		fmt.Fprintln(out, "account:    auto-created")
	}
	return nil
}

func printOutcome(out io.Writer, o auth.Outcome) {
	fmt.Fprintf(out, "decision:   %s\n", o.Decision)
	if o.Entry >= 0 {
		fmt.Fprintf(out, "entry:      %d\n", o.Entry)
	}
	if o.Decision == auth.DecisionConfigError {
		fmt.Fprintf(out, "error:      %s\n", o.ConfigError)
	}
	if o.Decision == auth.DecisionAuthenticated {
		fmt.Fprintf(out, "username:   %s\n", o.Username)
		fmt.Fprintf(out, "session_id: %s\n", o.SessionID)
	}
}
