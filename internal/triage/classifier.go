// Package triage turns scored conditions into an urgency tier and the
// guidance shown alongside it.
package triage

import (
	"strings"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

const (
	highSeverityThreshold   = 60
	mediumSeverityThreshold = 70
)

// Rule names the classification rule that decided the tier
type Rule string

const (
	RuleEmergencySymptom Rule = "emergency_symptom"
	RuleHighSeverity     Rule = "high_severity_match"
	RuleMediumSeverity   Rule = "medium_severity_match"
	RuleDefault          Rule = "default"
)

// Decision is an urgency tier with the rule and input that produced it
type Decision struct {
	Urgency model.Urgency `json:"urgency"`
	Rule    Rule          `json:"rule"`
	Trigger string        `json:"trigger,omitempty"`
}

// Classifier applies the ordered urgency rules. The first rule that
// matches wins.
type Classifier struct {
	emergency []model.SymptomTag
}

// NewClassifier creates a classifier with the emergency list of kb
func NewClassifier(kb *knowledge.KnowledgeBase) *Classifier {
	return &Classifier{emergency: kb.EmergencySymptoms()}
}

// Classify returns the urgency tier for the matches and tags
func (c *Classifier) Classify(matches []model.ConditionMatch, tags []model.SymptomTag) model.Urgency {
	return c.Decide(matches, tags).Urgency
}

// Decide is Classify with the deciding rule attached
func (c *Classifier) Decide(matches []model.ConditionMatch, tags []model.SymptomTag) Decision {
	if tag, ok := c.emergencyTag(tags); ok {
		return Decision{Urgency: model.UrgencyHigh, Rule: RuleEmergencySymptom, Trigger: tag}
	}

	for _, m := range matches {
		if m.Severity == model.SeverityHigh && m.Confidence > highSeverityThreshold {
			return Decision{Urgency: model.UrgencyHigh, Rule: RuleHighSeverity, Trigger: m.Name}
		}
	}

	for _, m := range matches {
		if m.Severity == model.SeverityMedium && m.Confidence > mediumSeverityThreshold {
			return Decision{Urgency: model.UrgencyMedium, Rule: RuleMediumSeverity, Trigger: m.Name}
		}
	}

	return Decision{Urgency: model.UrgencyLow, Rule: RuleDefault}
}

// emergencyTag finds the first tag that is or contains an emergency symptom
func (c *Classifier) emergencyTag(tags []model.SymptomTag) (string, bool) {
	for _, tag := range tags {
		lower := strings.ToLower(string(tag))
		for _, e := range c.emergency {
			if strings.Contains(lower, string(e)) {
				return string(tag), true
			}
		}
	}
	return "", false
}
