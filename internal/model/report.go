package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is the outcome of the symptom-matching pipeline
type AnalysisResult struct {
	PossibleConditions []ConditionMatch `json:"possible_conditions"` // Descending confidence, at most 4
	Recommendations    []string         `json:"recommendations"`
	Urgency            Urgency          `json:"urgency"`
	Confidence         int              `json:"confidence"` // Top match confidence or 0
}

// TopMatch returns the highest scoring condition, if any
func (r AnalysisResult) TopMatch() (ConditionMatch, bool) {
	if len(r.PossibleConditions) == 0 {
		return ConditionMatch{}, false
	}
	return r.PossibleConditions[0], true
}

// Report wraps an analysis result with its inputs and metadata
type Report struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Analyzed  bool      `json:"analyzed"` // False when the input was empty and the pipeline was skipped

	Input   string            `json:"input"`
	Patient PatientAttributes `json:"patient"`

	Tags                 []SymptomTag   `json:"tags"`
	Context              SymptomContext `json:"context"`
	ExtractionConfidence float64        `json:"extraction_confidence"`

	Result        AnalysisResult `json:"result"`
	UrgencyReason string         `json:"urgency_reason,omitempty"` // Rule and trigger that set the urgency
	Disclaimer    string         `json:"disclaimer"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional explanation, never affects the result
}

// Disclaimer is attached to every report
const Disclaimer = "This analysis is a heuristic keyword match, not a diagnosis. " +
	"Confidence values are capped at 95% and are not calibrated probabilities. " +
	"In an emergency, call your local emergency number."

// ConditionNames lists the names of the matched conditions in order
func (r *Report) ConditionNames() []string {
	names := make([]string, 0, len(r.Result.PossibleConditions))
	for _, m := range r.Result.PossibleConditions {
		names = append(names, m.Name)
	}
	return names
}

// LLMSummary contains the optional LLM-written explanation.
// It is produced after scoring and never changes the result.
type LLMSummary struct {
	Enabled          bool     `json:"enabled"`
	Provider         string   `json:"provider,omitempty"`
	Model            string   `json:"model,omitempty"`
	StrictConditions bool     `json:"strict_conditions"` // Whether condition-name enforcement was on
	ExplanationMD    string   `json:"explanation_md,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}
