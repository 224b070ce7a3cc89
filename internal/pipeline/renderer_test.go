package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/symptia/internal/model"
)

func analyzedReport(t *testing.T) *model.Report {
	t.Helper()
	p := newTestPipeline(t, testConfig())
	report, err := p.Analyze(context.Background(), headacheIntake())
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestRenderer_Markdown(t *testing.T) {
	report := analyzedReport(t)
	md := NewRenderer(true).Markdown(report)

	for _, want := range []string{
		"# Symptom Analysis",
		"**Patient:** age 30, female",
		"**Urgency:** LOW",
		"## Description",
		"> I have a severe headache and nausea for 3 days",
		"## Detected Symptoms",
		"- head pain",
		"## Possible Conditions",
		"| Migraine | 55% | medium |",
		"## Recommendations",
		"5. Consider discussing Migraine with your healthcare provider",
		model.Disclaimer,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderer_Markdown_NotAnalyzed(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	report, err := p.Analyze(context.Background(), model.Intake{})
	if err != nil {
		t.Fatal(err)
	}

	md := NewRenderer(false).Markdown(report)
	if !strings.Contains(md, "no analysis was performed") {
		t.Error("expected skipped-analysis note")
	}
	if strings.Contains(md, "## Possible Conditions") {
		t.Error("expected no conditions section")
	}
	if strings.Contains(md, model.Disclaimer) {
		t.Error("expected footer to be omitted")
	}
	if !strings.Contains(md, "4. Keep a symptom diary to track changes") {
		t.Error("expected default recommendations")
	}
}

func TestRenderer_RenderReport(t *testing.T) {
	report := analyzedReport(t)
	report.LLM = &model.LLMSummary{Enabled: true, Provider: "stub", ExplanationMD: "Likely a migraine."}

	dir := t.TempDir()
	out := Outputs{
		JSON:     filepath.Join(dir, "json", "report.json"),
		Markdown: filepath.Join(dir, "report.md"),
		PDF:      filepath.Join(dir, "report.pdf"),
	}

	var progress bytes.Buffer
	if err := NewRenderer(true).RenderReport(report, out, &progress); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}

	data, err := os.ReadFile(out.JSON)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.ID != report.ID || decoded.Result.Confidence != 55 {
		t.Error("JSON does not match report")
	}

	if _, err := os.Stat(filepath.Join(dir, "report.llm.md")); err != nil {
		t.Errorf("expected explanation file: %v", err)
	}

	pdf, err := os.ReadFile(out.PDF)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("expected PDF header")
	}

	for _, want := range []string{"✓ Wrote JSON", "✓ Wrote Markdown", "✓ Wrote Explanation", "✓ Wrote PDF"} {
		if !strings.Contains(progress.String(), want) {
			t.Errorf("progress missing %q", want)
		}
	}
}

func TestRenderer_RenderSummary(t *testing.T) {
	report := analyzedReport(t)

	var buf bytes.Buffer
	NewRenderer(false).RenderSummary(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"Symptoms: pain, headache, nausea, head pain",
		"55%  Migraine",
		"Urgency: LOW",
		"  - Stay hydrated and get adequate rest",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q in:\n%s", want, out)
		}
	}
}

func TestDescribePatient(t *testing.T) {
	if got := describePatient(model.PatientAttributes{}); got != "not specified" {
		t.Errorf("got %q", got)
	}
	got := describePatient(model.NewPatientAttributes("42", "m", "2 days"))
	if got != "age 42, male, symptoms for 2 days" {
		t.Errorf("got %q", got)
	}
}
