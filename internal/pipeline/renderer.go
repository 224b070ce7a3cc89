package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/ppiankov/symptia/internal/llm"
	"github.com/ppiankov/symptia/internal/model"
)

// Renderer writes reports as JSON, Markdown, PDF and terminal summaries
type Renderer struct {
	includeFooter bool
}

func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// Outputs names the files to write; empty paths are skipped
type Outputs struct {
	JSON     string
	Markdown string
	PDF      string
}

// RenderReport writes every requested output and, for Markdown, the
// separate explanation file when one exists
func (r *Renderer) RenderReport(report *model.Report, out Outputs, progress io.Writer) error {
	if out.JSON != "" {
		if err := r.RenderJSON(report, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(progress, "✓ Wrote JSON: %s\n", out.JSON)
	}

	if out.Markdown != "" {
		if err := r.RenderMarkdown(report, out.Markdown); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(progress, "✓ Wrote Markdown: %s\n", out.Markdown)

		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(out.Markdown, ".md") + ".llm.md"
			if err := writeFile(llmPath, []byte(llm.RenderSeparateMarkdown(report.LLM))); err != nil {
				fmt.Fprintf(progress, "Warning: Failed to write explanation: %v\n", err)
			} else {
				fmt.Fprintf(progress, "✓ Wrote Explanation: %s\n", llmPath)
			}
		}
	}

	if out.PDF != "" {
		if err := r.RenderPDF(report, out.PDF); err != nil {
			return fmt.Errorf("render PDF: %w", err)
		}
		fmt.Fprintf(progress, "✓ Wrote PDF: %s\n", out.PDF)
	}

	return nil
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the Markdown report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Symptom Analysis\n\n")
	if report.ID != uuid.Nil {
		fmt.Fprintf(&b, "- **ID:** %s\n", report.ID)
	}
	if !report.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Date:** %s\n", report.CreatedAt.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintf(&b, "- **Patient:** %s\n", describePatient(report.Patient))
	fmt.Fprintf(&b, "- **Urgency:** %s\n", strings.ToUpper(string(report.Result.Urgency)))
	if report.UrgencyReason != "" {
		fmt.Fprintf(&b, "- **Urgency reason:** %s\n", report.UrgencyReason)
	}
	b.WriteString("\n")

	if !report.Analyzed {
		b.WriteString("_No symptoms were provided; no analysis was performed._\n\n")
	} else {
		b.WriteString("## Description\n\n")
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(report.Input), "\n", "\n> "))

		b.WriteString("## Detected Symptoms\n\n")
		if len(report.Tags) == 0 {
			b.WriteString("None detected.\n\n")
		} else {
			for _, t := range report.Tags {
				fmt.Fprintf(&b, "- %s\n", t)
			}
			fmt.Fprintf(&b, "\nExtraction confidence: %.0f%%\n\n", report.ExtractionConfidence*100)
		}

		b.WriteString("## Possible Conditions\n\n")
		if len(report.Result.PossibleConditions) == 0 {
			b.WriteString("No clear match.\n\n")
		} else {
			b.WriteString("| Condition | Confidence | Severity | Lexical | Neural | Age | Gender |\n")
			b.WriteString("|---|---|---|---|---|---|---|\n")
			for _, m := range report.Result.PossibleConditions {
				fmt.Fprintf(&b, "| %s | %d%% | %s | %.2f | %.2f | %.2f | %.2f |\n",
					m.Name, m.Confidence, m.Severity,
					m.Breakdown.Lexical, m.Breakdown.Neural, m.Breakdown.Age, m.Breakdown.Gender)
			}
			b.WriteString("\n")
			for _, m := range report.Result.PossibleConditions {
				if m.Description != "" {
					fmt.Fprintf(&b, "- **%s:** %s\n", m.Name, m.Description)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Recommendations\n\n")
	for i, rec := range report.Result.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	b.WriteString("\n")

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "_%s_\n", report.Disclaimer)
	}

	return b.String()
}

// RenderPDF writes a one-page PDF using the built-in core fonts
func (r *Renderer) RenderPDF(report *model.Report, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Symptom Analysis", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Symptom Analysis", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	if !report.CreatedAt.IsZero() {
		pdf.CellFormat(0, 6, "Date: "+report.CreatedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr("Patient: "+describePatient(report.Patient)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Urgency: "+strings.ToUpper(string(report.Result.Urgency)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}

	if report.Analyzed {
		section("Description")
		pdf.MultiCell(0, 6, tr(strings.TrimSpace(report.Input)), "", "L", false)
		pdf.Ln(2)

		section("Possible Conditions")
		if len(report.Result.PossibleConditions) == 0 {
			pdf.MultiCell(0, 6, "No clear match.", "", "L", false)
		} else {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(80, 7, "Condition", "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, "Confidence", "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 7, "Severity", "1", 1, "C", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			for _, m := range report.Result.PossibleConditions {
				pdf.CellFormat(80, 7, tr(m.Name), "1", 0, "L", false, 0, "")
				pdf.CellFormat(30, 7, fmt.Sprintf("%d%%", m.Confidence), "1", 0, "C", false, 0, "")
				pdf.CellFormat(30, 7, string(m.Severity), "1", 1, "C", false, 0, "")
			}
		}
		pdf.Ln(3)
	} else {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, "No symptoms were provided; no analysis was performed.", "", "L", false)
		pdf.Ln(2)
	}

	section("Recommendations")
	for i, rec := range report.Result.Recommendations {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, rec)), "", "L", false)
	}

	if r.includeFooter {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(0, 4, tr(report.Disclaimer), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write PDF: %w", err)
	}
	return nil
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintln(w)
	if !report.Analyzed {
		fmt.Fprintln(w, "No symptoms provided; analysis skipped.")
	} else {
		fmt.Fprintf(w, "Symptoms: %s\n", joinTags(report.Tags))
		if len(report.Result.PossibleConditions) == 0 {
			fmt.Fprintln(w, "Possible conditions: no clear match")
		} else {
			fmt.Fprintln(w, "Possible conditions:")
			for _, m := range report.Result.PossibleConditions {
				fmt.Fprintf(w, "  %3d%%  %-20s (%s severity)\n", m.Confidence, m.Name, m.Severity)
			}
		}
	}

	fmt.Fprintf(w, "Urgency: %s\n", strings.ToUpper(string(report.Result.Urgency)))
	fmt.Fprintln(w, "Recommendations:")
	for _, rec := range report.Result.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}

	if report.LLM != nil && report.LLM.Enabled {
		fmt.Fprintf(w, "\nExplanation (%s):\n%s\n", report.LLM.Provider, report.LLM.ExplanationMD)
	}

	if r.includeFooter {
		fmt.Fprintf(w, "\n%s\n", report.Disclaimer)
	}
}

func describePatient(p model.PatientAttributes) string {
	var parts []string
	if p.Age != nil {
		parts = append(parts, fmt.Sprintf("age %d", *p.Age))
	}
	if p.Gender != model.GenderUnspecified {
		parts = append(parts, string(p.Gender))
	}
	if p.Duration != "" {
		parts = append(parts, "symptoms for "+p.Duration)
	}
	if len(parts) == 0 {
		return "not specified"
	}
	return strings.Join(parts, ", ")
}

func joinTags(tags []model.SymptomTag) string {
	if len(tags) == 0 {
		return "none detected"
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
