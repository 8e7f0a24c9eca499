package cli

import (
	"fmt"
	"io"
	"strings"

	"ccsemgrep/internal/config"
	"ccsemgrep/internal/flags"
	"ccsemgrep/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRulesCmd(opts *config.Options) *cobra.Command {
	var (
		quiet    bool
		selector string
	)

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the Semgrep rules an engine config references",
		Long: `Inspect the Semgrep rules referenced by the engine config.

Only runs that name rule files contribute rules; inline patterns have no rule
file. Each rule is shown with the Code Climate check name, categories and
severity its matches are reported with.

Examples:
  # List every referenced rule
  ccsemgrep rules list -c engine.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rulesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List referenced rules",
		Long: `List all rules in the rule files referenced by the engine config.

Rules are listed in config order, then in file order.

Examples:
  ccsemgrep rules list
  ccsemgrep rules list -q --select 'python.*'

Output:
  A vertical list of rules:
    ----------------------------------------
    RULE: {ID}
    ----------------------------------------
    {MESSAGE}
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRuleSet(cmd, opts)
			if err != nil {
				return err
			}
			rList, err := set.Resolve(selector)
			if err != nil {
				return err
			}

			for _, r := range rList {
				if quiet {
					fmt.Fprintln(cmd.OutOrStdout(), r.ID)
				} else {
					printRule(cmd.OutOrStdout(), r)
				}
			}
			return nil
		},
	}
	rulesListCmd.Flags().BoolVarP(&quiet, flags.FlagQuiet, flags.ShortQuiet, false, "Only print rule IDs")
	rulesListCmd.Flags().StringVar(&selector, flags.FlagSelect, "", "Comma-separated rule IDs or glob patterns (empty = all rules)")

	rulesShowCmd := &cobra.Command{
		Use:   "show [rule-id]",
		Short: "Show details of a specific rule",
		Long: `Show details of a specific rule by its ID.

Examples:
  ccsemgrep rules show tests.sentinel-body
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRuleSet(cmd, opts)
			if err != nil {
				return err
			}
			r, ok := set.Lookup(args[0])
			if !ok {
				return fmt.Errorf("rule not found: %s", args[0])
			}
			printRule(cmd.OutOrStdout(), r)
			return nil
		},
	}

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	return rulesCmd
}

func loadRuleSet(cmd *cobra.Command, opts *config.Options) (*rules.Set, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, fatalError(err)
	}
	rList, err := rules.LoadFiles(cmd.Context(), cfg.ConfigPaths())
	if err != nil {
		return nil, fatalError(err)
	}
	set, err := rules.NewSet(rList)
	if err != nil {
		return nil, fatalError(err)
	}
	return set, nil
}

func printRule(w io.Writer, r rules.Rule) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", r.ID)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, strings.TrimSpace(r.Message))
	fmt.Fprintln(w)

	categories := make([]string, 0, len(rules.Categories(r)))
	for _, c := range rules.Categories(r) {
		categories = append(categories, string(c))
	}
	fmt.Fprintf(w, "  Check name: %s\n", rules.CheckName(r))
	fmt.Fprintf(w, "  Categories: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(w, "  Severity:   %s (%s)\n", rules.Severity(r), strings.ToUpper(r.Severity))
	if len(r.Languages) > 0 {
		fmt.Fprintf(w, "  Languages:  %s\n", strings.Join(r.Languages, ", "))
	}
	if r.Source != "" {
		fmt.Fprintf(w, "  Source:     %s\n", r.Source)
	}
	fmt.Fprintln(w)
}
