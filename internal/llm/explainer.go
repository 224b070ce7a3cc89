package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/symptia/internal/model"
)

// Explainer adds an optional LLM explanation to finished reports.
// It runs after scoring and never changes the result.
type Explainer struct {
	provider Provider
	config   Config
}

// NewExplainer creates an explainer; a disabled config gives an explainer
// whose IsEnabled is false
func NewExplainer(config Config) (*Explainer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Explainer{provider: provider, config: config}, nil
}

// NewExplainerWithProvider wraps an existing provider
func NewExplainerWithProvider(provider Provider, config Config) *Explainer {
	return &Explainer{provider: provider, config: config}
}

func (e *Explainer) IsEnabled() bool {
	return e != nil && e.provider != nil
}

func (e *Explainer) ProviderName() string {
	if !e.IsEnabled() {
		return ""
	}
	return e.provider.Name()
}

// Explain returns nil when disabled. An unreachable provider gives a
// disabled summary carrying a warning rather than an error.
func (e *Explainer) Explain(ctx context.Context, report model.Report, catalog []string) (*model.LLMSummary, error) {
	if !e.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:         e.provider.Name(),
		Model:            e.config.Model,
		StrictConditions: e.config.StrictConditions,
	}

	if !report.Analyzed {
		summary.Warnings = append(summary.Warnings, "No analysis was performed; nothing to explain")
		return summary, nil
	}

	if !e.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available", e.provider.Name()))
		return summary, nil
	}

	resp, err := e.provider.Explain(ctx, ExplainRequest{
		Report:            report,
		AllowedConditions: report.ConditionNames(),
		CatalogConditions: catalog,
		Model:             e.config.Model,
		MaxTokens:         e.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("explain analysis: %w", err)
	}

	summary.Enabled = true
	summary.Model = resp.Model
	summary.ExplanationMD = resp.Text
	if resp.TokensUsed > 0 {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	if e.config.StrictConditions {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d condition mentions against the result", len(resp.MentionedConditions)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders an explanation as its own Markdown document
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Explanation\n\n")
	fmt.Fprintf(&b, "_Written by %s", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, " (%s)", summary.Model)
	}
	b.WriteString(". This text does not change the analysis._\n\n")
	b.WriteString(summary.ExplanationMD)
	b.WriteString("\n")

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	b.WriteString("\n---\n\n")
	b.WriteString(model.Disclaimer)
	b.WriteString("\n")
	return b.String()
}
