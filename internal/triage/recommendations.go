package triage

import (
	"fmt"

	"github.com/ppiankov/symptia/internal/model"
)

var tierAdvice = map[model.Urgency][]string{
	model.UrgencyHigh: {
		"Seek immediate medical attention or visit the emergency room",
		"Do not delay medical care for these symptoms",
	},
	model.UrgencyMedium: {
		"Schedule an appointment with your healthcare provider within 24-48 hours",
		"Monitor symptoms and seek immediate care if they worsen",
	},
	model.UrgencyLow: {
		"Consider scheduling a routine appointment with your healthcare provider",
		"Monitor symptoms and rest as needed",
	},
}

var generalAdvice = []string{
	"Stay hydrated and get adequate rest",
	"Keep a symptom diary to track changes",
}

// Generate returns the recommendations for an urgency tier in display order:
// tier advice, general advice, then a pointer to the top match if any.
// Unknown tiers are treated as low.
func Generate(matches []model.ConditionMatch, urgency model.Urgency, attrs model.PatientAttributes) []string {
	tier, ok := tierAdvice[urgency]
	if !ok {
		tier = tierAdvice[model.UrgencyLow]
	}

	recs := make([]string, 0, len(tier)+len(generalAdvice)+1)
	recs = append(recs, tier...)
	recs = append(recs, generalAdvice...)

	if len(matches) > 0 {
		recs = append(recs, fmt.Sprintf("Consider discussing %s with your healthcare provider", matches[0].Name))
	}

	return recs
}
