package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symptia/internal/pipeline"
)

var (
	analyzeFlags analysisFlags
	age          string
	gender       string
	duration     string
	selected     []string
	inputFile    string
	outJSON      string
	outMD        string
	outPDF       string
	printJSON    bool
	timeout      time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [description...]",
	Short: "Analyze a symptom description",
	Long: `Analyze matches a free-text symptom description against the condition catalog:
- Extract canonical symptom tags from the text
- Score every catalog condition and keep the best matches
- Classify urgency and generate recommendations

The description comes from the arguments, from --file, or from stdin with "-".

Example:
  symptia analyze "I have a severe headache and nausea for 3 days" --age 30 --gender female
  symptia analyze --select "Chest Pain" --select Dizziness
  symptia analyze --file intake.yaml --json report.json --md report.md --pdf report.pdf
  echo "fever and cough" | symptia analyze - --network constant`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&age, "age", "", "patient age")
	analyzeCmd.Flags().StringVar(&gender, "gender", "", "patient gender (male, female, other)")
	analyzeCmd.Flags().StringVar(&duration, "duration", "", "how long the symptoms have lasted (informational)")
	analyzeCmd.Flags().StringSliceVar(&selected, "select", nil, "quick-pick symptom (repeatable)")
	analyzeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read the intake from a file (.txt, .jsonl, .yaml, .html)")

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	analyzeCmd.Flags().StringVar(&outPDF, "pdf", "", "output PDF path")
	analyzeCmd.Flags().BoolVar(&printJSON, "print-json", false, "print the report as JSON instead of a summary")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall analysis timeout")

	analyzeFlags.register(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd, &analyzeFlags)
	if err != nil {
		return err
	}

	in, err := readDescription(args, inputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("age") {
		in.Age = age
	}
	if cmd.Flags().Changed("gender") {
		in.Gender = gender
	}
	if cmd.Flags().Changed("duration") {
		in.Duration = duration
	}
	if len(selected) > 0 {
		in.Selected = append(in.Selected, selected...)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, closeHistory, err := buildPipeline(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = closeHistory() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Analyzing (delay %v, network %s)...\n", cfg.Analysis.Delay, cfg.Analysis.Network)
	}

	report, err := p.Analyze(ctx, in)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	out := cmd.OutOrStdout()
	if printJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		renderer.RenderSummary(out, report)
	}

	outputs := pipeline.Outputs{JSON: outJSON, Markdown: outMD, PDF: outPDF}
	if err := renderer.RenderReport(report, outputs, os.Stderr); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
