package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/symptia/internal/model"
)

// Provider is an LLM backend that can explain a finished analysis
type Provider interface {
	Name() string

	// Explain writes a plain-language explanation of the report
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error)

	// IsAvailable checks that the backend is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// ExplainRequest contains the input for an explanation
type ExplainRequest struct {
	Report model.Report

	// AllowedConditions are the conditions the explanation may name.
	// Any other catalog condition in the output is a leak.
	AllowedConditions []string

	// CatalogConditions are all condition names known to the analyzer
	CatalogConditions []string

	// Prompt overrides the default prompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// ExplainResponse contains the provider output
type ExplainResponse struct {
	Text                string
	MentionedConditions []string
	Model               string
	TokensUsed          int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string
	Model    string
	APIKey   string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	Timeout int // seconds

	// StrictConditions rejects explanations that name conditions outside the result
	StrictConditions bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns the disabled configuration
func DefaultConfig() Config {
	return Config{
		Timeout:          30,
		StrictConditions: true,
		MaxTokens:        600,
	}
}

// BuildPrompt constructs the default explanation prompt
func BuildPrompt(report model.Report, allowed []string) string {
	var b strings.Builder

	b.WriteString(`You are explaining the output of a keyword-based symptom checker to a patient. The checker is NOT a diagnosis and its confidence values are heuristics capped at 95%.

RULES:
1. You may ONLY mention these conditions by name:
`)
	b.WriteString(joinConditions(allowed))
	b.WriteString(`

2. Do not suggest any other condition, test or medication.
3. Do not change or contradict the urgency level.
4. Encourage the patient to talk to a healthcare provider.
5. Keep it to 3-5 short sentences in plain language.

`)

	fmt.Fprintf(&b, "Reported symptoms: %s\n", joinTags(report.Tags))
	if report.Patient.Age != nil {
		fmt.Fprintf(&b, "Age: %d\n", *report.Patient.Age)
	}
	if report.Patient.Gender != model.GenderUnspecified {
		fmt.Fprintf(&b, "Gender: %s\n", report.Patient.Gender)
	}
	fmt.Fprintf(&b, "Urgency: %s\n", report.Result.Urgency)

	b.WriteString("Possible conditions:\n")
	for _, m := range report.Result.PossibleConditions {
		fmt.Fprintf(&b, "- %s (%d%%, %s severity): %s\n", m.Name, m.Confidence, m.Severity, m.Description)
	}

	return b.String()
}

func joinConditions(names []string) string {
	if len(names) == 0 {
		return "(none: do not name any condition)"
	}
	lines := make([]string, len(names))
	for i, n := range names {
		lines[i] = "- " + n
	}
	return strings.Join(lines, "\n")
}

func joinTags(tags []model.SymptomTag) string {
	if len(tags) == 0 {
		return "(none)"
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// MentionedConditions returns the catalog conditions named in text, in
// catalog order. A condition like "Influenza (Flu)" also matches on
// "influenza" or "flu" as whole words.
func MentionedConditions(text string, catalog []string) []string {
	words := wordSet(text)
	lower := strings.ToLower(text)

	var found []string
	for _, name := range catalog {
		for _, alias := range conditionAliases(name) {
			if strings.Contains(alias, " ") {
				if strings.Contains(lower, alias) {
					found = append(found, name)
					break
				}
			} else if words[alias] {
				found = append(found, name)
				break
			}
		}
	}
	return found
}

func conditionAliases(name string) []string {
	lower := strings.ToLower(name)
	aliases := []string{lower}

	if open := strings.Index(lower, "("); open > 0 {
		aliases = append(aliases, strings.TrimSpace(lower[:open]))
		inner := strings.TrimSuffix(strings.TrimSpace(lower[open+1:]), ")")
		if inner != "" {
			aliases = append(aliases, inner)
		}
	}
	return aliases
}

func wordSet(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
