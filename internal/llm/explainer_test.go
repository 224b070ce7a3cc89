package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/symptia/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *ExplainResponse
	err       error
	lastReq   ExplainRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewExplainer_Disabled(t *testing.T) {
	e, err := NewExplainer(Config{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if e.IsEnabled() {
		t.Error("Expected explainer to be disabled")
	}
	if e.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	summary, err := e.Explain(context.Background(), migraineReport(), catalog)
	if err != nil || summary != nil {
		t.Errorf("Expected nil summary and error, got %v, %v", summary, err)
	}

	var nilExplainer *Explainer
	if nilExplainer.IsEnabled() {
		t.Error("Expected nil explainer to be disabled")
	}
}

func TestExplainer_Explain_ProviderUnavailable(t *testing.T) {
	e := NewExplainerWithProvider(&MockProvider{name: "mock"}, Config{StrictConditions: true})

	summary, err := e.Explain(context.Background(), migraineReport(), catalog)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary == nil || summary.Enabled {
		t.Fatal("Expected disabled summary")
	}
	if len(summary.Warnings) == 0 || !strings.Contains(summary.Warnings[0], "not available") {
		t.Errorf("Expected availability warning, got %v", summary.Warnings)
	}
}

func TestExplainer_Explain_SkipsEmptyAnalysis(t *testing.T) {
	mock := &MockProvider{name: "mock", available: true}
	e := NewExplainerWithProvider(mock, Config{})

	summary, err := e.Explain(context.Background(), model.Report{Analyzed: false}, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Enabled {
		t.Error("Expected no explanation for an empty analysis")
	}
}

func TestExplainer_Explain_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "mock",
		available: true,
		response: &ExplainResponse{
			Text:                "A migraine is the closest match.",
			MentionedConditions: []string{"Migraine"},
			Model:               "test-model",
			TokensUsed:          80,
		},
	}
	e := NewExplainerWithProvider(mock, Config{Model: "test-model", StrictConditions: true})

	summary, err := e.Explain(context.Background(), migraineReport(), catalog)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !summary.Enabled || summary.Provider != "mock" || summary.Model != "test-model" {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.ExplanationMD != "A migraine is the closest match." {
		t.Errorf("Unexpected explanation: %s", summary.ExplanationMD)
	}
	if !summary.StrictConditions {
		t.Error("Expected strict mode to be recorded")
	}

	want := []string{"Migraine", "Influenza (Flu)"}
	if len(mock.lastReq.AllowedConditions) != 2 ||
		mock.lastReq.AllowedConditions[0] != want[0] || mock.lastReq.AllowedConditions[1] != want[1] {
		t.Errorf("Expected allowed conditions %v, got %v", want, mock.lastReq.AllowedConditions)
	}

	joined := strings.Join(summary.Warnings, "\n")
	if !strings.Contains(joined, "Tokens used: 80") || !strings.Contains(joined, "Verified 1 condition") {
		t.Errorf("Unexpected warnings: %v", summary.Warnings)
	}
}

func TestExplainer_Explain_ProviderError(t *testing.T) {
	mock := &MockProvider{name: "mock", available: true, err: errors.New("CONDITION LEAK: x")}
	e := NewExplainerWithProvider(mock, Config{StrictConditions: true})

	if _, err := e.Explain(context.Background(), migraineReport(), catalog); err == nil {
		t.Fatal("Expected error to propagate")
	}
}

func TestBuildPrompt(t *testing.T) {
	age := 30
	report := migraineReport()
	report.Patient = model.PatientAttributes{Age: &age, Gender: model.GenderFemale}

	prompt := BuildPrompt(report, report.ConditionNames())
	for _, want := range []string{"- Migraine", "- Influenza (Flu)", "Age: 30", "Gender: female", "Urgency: low", "headache, nausea"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	empty := BuildPrompt(model.Report{}, nil)
	if !strings.Contains(empty, "do not name any condition") {
		t.Error("Expected prompt to forbid condition names when none are allowed")
	}
}

func TestMentionedConditions(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Could be the flu.", []string{"Influenza (Flu)"}},
		{"Influenza is common in winter", []string{"Influenza (Flu)"}},
		{"Fluid intake matters", nil},
		{"A common cold or MIGRAINE", []string{"Common Cold", "Migraine"}},
		{"diabetes type 2 risk", []string{"Diabetes Type 2"}},
		{"Nothing specific", nil},
	}

	for _, tt := range tests {
		got := MentionedConditions(tt.text, catalog)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("MentionedConditions(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	if RenderSeparateMarkdown(nil) != "" {
		t.Error("Expected empty output for nil summary")
	}

	md := RenderSeparateMarkdown(&model.LLMSummary{
		Enabled:       true,
		Provider:      "ollama",
		Model:         "llama3.1",
		ExplanationMD: "Rest and hydrate.",
		Warnings:      []string{"Tokens used: 10"},
	})
	for _, want := range []string{"# Explanation", "ollama (llama3.1)", "Rest and hydrate.", "- Tokens used: 10", model.Disclaimer} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}
