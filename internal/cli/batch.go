package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symptia/internal/intake"
	"github.com/ppiankov/symptia/internal/model"
	"github.com/ppiankov/symptia/internal/pipeline"
	"github.com/ppiankov/symptia/internal/worker"
)

var (
	batchFlags   analysisFlags
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchRate    float64
	llmRate      float64
	llmCooldown  time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many intakes from a file in parallel",
	Long: `Batch analyzes every intake in a file concurrently:
- Read intakes (.txt one per line, .jsonl, .yaml list, .html)
- Analyze them with a bounded worker pool
- Write a JSON and Markdown report per intake

Example:
  symptia batch intakes.jsonl
  symptia batch intakes.yaml --concurrency 8 --output-dir ./reports
  symptia batch intakes.txt --rate 2 --llm ollama
  symptia batch intakes.txt --llm openai --llm-rate 0.5 --llm-cooldown 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./symptia-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&batchRate, "rate", 0, "max analyses started per second (0 = unpaced)")
	batchCmd.Flags().Float64Var(&llmRate, "llm-rate", 1, "max LLM explanations per second per provider (0 = unpaced)")
	batchCmd.Flags().DurationVar(&llmCooldown, "llm-cooldown", 0, "extra pause after each LLM explanation clears the limit")

	batchFlags.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := effectiveConfig(cmd, &batchFlags)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Symptia Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, closeHistory, err := buildPipeline(ctx, cfg, false, explainPacing(cfg.LLM.Provider, llmRate, llmCooldown)...)
	if err != nil {
		return err
	}
	defer func() { _ = closeHistory() }()

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, batchRate, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing intakes with %d workers...\n\n", cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, intake.NewRegistry(), file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	for _, result := range results {
		label := fmt.Sprintf("#%d", result.Index+1)
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, result.Error)
			continue
		}

		base := filepath.Join(outputDir, reportName(result.Index, result.Report))
		if err := renderer.RenderJSON(result.Report, base+".json"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", label, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, base+".md"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", label, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s %s (urgency: %s)\n", label, topLabel(result.Report), result.Report.Result.Urgency)
	}

	succeeded, failed := worker.Summary(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d intakes\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", succeeded)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failed > 0 && succeeded == 0 {
		return fmt.Errorf("all %d intakes failed", failed)
	}
	return nil
}

// explainPacing limits LLM calls per provider so a large batch does not
// flood the provider. No provider or a non-positive rate adds nothing.
func explainPacing(provider string, perSecond float64, cooldown time.Duration) []pipeline.Option {
	if provider == "" || perSecond <= 0 {
		return nil
	}
	limiter := worker.NewLimiter(0, 1)
	limiter.SetRate(strings.ToLower(provider), perSecond, 1)
	return []pipeline.Option{pipeline.WithExplainPacer(limiter, cooldown)}
}

func topLabel(report *model.Report) string {
	if !report.Analyzed {
		return "no symptoms"
	}
	if top, ok := report.Result.TopMatch(); ok {
		return fmt.Sprintf("%s %d%%", top.Name, top.Confidence)
	}
	return "no clear match"
}

// reportName is the file name stem for one batch result: index plus the
// top condition, e.g. "003-influenza-flu"
func reportName(index int, report *model.Report) string {
	name := "no-match"
	if top, ok := report.Result.TopMatch(); ok {
		name = sanitizeFilename(top.Name)
	}
	return fmt.Sprintf("%03d-%s", index+1, name)
}

// sanitizeFilename keeps letters and digits and joins the rest with dashes
func sanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 100 {
		out = out[:100]
	}
	if out == "" {
		return "report"
	}
	return out
}
