package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
)

var principalsCmd = &cobra.Command{
	Use:   "principals",
	Short: "List the configured principal table",
	Long: `List principal entries in evaluation order. Tokens are never printed.
Entries that would fail or never match at request time are flagged.`,
	RunE: runPrincipals,
}

func init() {
	rootCmd.AddCommand(principalsCmd)
}

func runPrincipals(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath())
	if err != nil {
		return err
	}
	return renderPrincipals(cmd.OutOrStdout(), cfg)
}

func renderPrincipals(out io.Writer, cfg *config.Config) error {
	problems := lo.GroupBy(cfg.PrincipalProblems(), func(p config.PrincipalProblem) int {
		return p.Entry
	})

	table := tablewriter.NewWriter(out)
	if err := table.Append([]string{"#", "Username", "Token", "IP Ranges", "Status"}); err != nil {
		return err
	}

	for i, p := range cfg.NetworkSession.Principals() {
		row := []string{
			fmt.Sprint(i),
			p.Username.OrElse("<none>"),
			maskToken(p.Token),
			strings.Join(p.IPRanges.OrElse(nil), ", "),
			entryStatus(problems[i]),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}

// maskToken hides the token and reports only whether it is usable.
func maskToken(token mo.Option[string]) string {
	t, ok := token.Get()
	switch {
	case !ok:
		return "<none>"
	case t == "":
		return "<empty>"
	default:
		return "********"
	}
}

func entryStatus(problems []config.PrincipalProblem) string {
	if len(problems) == 0 {
		return "ok"
	}
	if fatal, ok := lo.Find(problems, func(p config.PrincipalProblem) bool { return p.Fatal }); ok {
		return "error: " + fatal.Message
	}
	return "warning: " + strings.Join(lo.Map(problems, func(p config.PrincipalProblem, _ int) string {
		return p.Message
	}), "; ")
}
