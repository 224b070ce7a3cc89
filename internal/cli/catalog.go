package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/validate"
)

var lintStrict bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the condition catalog and knowledge base",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog conditions",
	RunE: func(cmd *cobra.Command, args []string) error {
		kb, err := knowledge.LoadOrDefault(viper.GetString("analysis.knowledge_file"))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CONDITION\tSEVERITY\tSYMPTOMS")
		for _, c := range kb.Conditions() {
			symptoms := make([]string, len(c.ReferenceSymptoms))
			for i, s := range c.ReferenceSymptoms {
				symptoms[i] = string(s)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Severity, strings.Join(symptoms, ", "))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nQuick picks: %s\n", strings.Join(kb.QuickPicks(), ", "))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [knowledge.yaml]",
	Short: "Lint a knowledge base file (default: the configured one)",
	Long: `Validate loads a knowledge base and reports entries that can never take
effect: reference symptoms the extractor never produces, weights for unknown
tags, unreachable emergency symptoms, synonyms shared by two tags and
quick picks that name no extractable symptom.

With --strict, warnings make the command fail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("analysis.knowledge_file")
		if len(args) == 1 {
			path = args[0]
		}

		kb, err := knowledge.LoadOrDefault(path)
		if err != nil {
			return err
		}

		name := path
		if name == "" {
			name = "embedded knowledge base"
		}

		issues := validate.Lint(kb)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d conditions, %d issues\n", name, len(kb.Conditions()), len(issues))
		for _, issue := range issues {
			if issue.Level == validate.LevelInfo && !verbose {
				continue
			}
			fmt.Fprintf(out, "  %s\n", issue)
		}
		if !verbose {
			fmt.Fprintln(os.Stderr, "(use --verbose to include info-level findings)")
		}

		if lintStrict && validate.HasWarnings(issues) {
			return fmt.Errorf("knowledge base has warnings")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogValidateCmd.Flags().BoolVar(&lintStrict, "strict", false, "fail on warnings")
}
