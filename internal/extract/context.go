package extract

import (
	"strings"

	"github.com/ppiankov/symptia/internal/model"
)

// ExtractWithContext reports intensity, duration and body-region signals.
// The result is descriptive and is not used for scoring.
func (e *SymptomExtractor) ExtractWithContext(text string) model.SymptomContext {
	lower := strings.ToLower(text)
	var ctx model.SymptomContext

	for _, s := range e.severity {
		if containsAny(lower, s.Terms) {
			ctx.Severity = append(ctx.Severity, s.Level)
		}
	}

	for _, d := range e.duration {
		if containsAny(lower, d.Terms) {
			ctx.Duration = append(ctx.Duration, d.Kind)
		}
	}

	for _, p := range e.bodyParts {
		if containsAny(lower, p.Terms) {
			ctx.BodyParts = append(ctx.BodyParts, p.Part)
		}
	}

	return ctx
}

// NormalizeSymptom maps a phrase onto its canonical tag.
// Phrases that are neither a canonical term nor a known synonym come back
// lower-cased and trimmed. Normalizing a canonical tag returns it unchanged.
func (e *SymptomExtractor) NormalizeSymptom(symptom string) model.SymptomTag {
	normalized := strings.ToLower(strings.TrimSpace(symptom))

	for _, entry := range e.synonyms {
		if normalized == string(entry.Tag) {
			return entry.Tag
		}
		for _, syn := range entry.Terms {
			if normalized == syn {
				return entry.Tag
			}
		}
	}

	return model.SymptomTag(normalized)
}

// ExtractionConfidence scores how directly the tags appear in the text:
// 0.9 for a literal tag, 0.7 for a synonym, 0.3 otherwise, averaged and capped at 1
func (e *SymptomExtractor) ExtractionConfidence(text string, tags []model.SymptomTag) float64 {
	if len(tags) == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	total := 0.0

	for _, tag := range tags {
		switch {
		case strings.Contains(lower, string(tag)):
			total += 0.9
		case containsAny(lower, e.synonymsOf(tag)):
			total += 0.7
		default:
			total += 0.3
		}
	}

	confidence := total / float64(len(tags))
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func (e *SymptomExtractor) synonymsOf(tag model.SymptomTag) []string {
	for _, entry := range e.synonyms {
		if entry.Tag == tag {
			return entry.Terms
		}
	}
	return nil
}
