// Package validate lints a knowledge base for entries that load fine but can
// never take effect during an analysis.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Issue is one lint finding
type Issue struct {
	Level   Level  `json:"level"`
	Check   string `json:"check"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Level, i.Subject, i.Message)
}

// Check names
const (
	CheckUnreachableSymptom   = "unreachable_symptom"
	CheckUnknownWeight        = "unknown_weight"
	CheckUnreachableEmergency = "unreachable_emergency"
	CheckDuplicateSynonym     = "duplicate_synonym"
	CheckUnknownQuickPick     = "unknown_quick_pick"
	CheckNoAdjustment         = "no_adjustment"
)

// Lint runs every check and returns the findings in a stable order
func Lint(kb *knowledge.KnowledgeBase) []Issue {
	produced := ProducibleTags(kb)
	referenced := make(map[model.SymptomTag]bool)
	for _, c := range kb.Conditions() {
		for _, s := range c.ReferenceSymptoms {
			referenced[s] = true
		}
	}

	var issues []Issue
	issues = append(issues, unreachableSymptoms(kb, produced)...)
	issues = append(issues, unknownWeights(kb, produced, referenced)...)
	issues = append(issues, unreachableEmergencies(kb, produced)...)
	issues = append(issues, duplicateSynonyms(kb)...)
	issues = append(issues, unknownQuickPicks(kb, produced)...)
	issues = append(issues, missingAdjustments(kb)...)
	return issues
}

// HasWarnings reports whether any issue is above info level
func HasWarnings(issues []Issue) bool {
	for _, i := range issues {
		if i.Level == LevelWarning {
			return true
		}
	}
	return false
}

// ProducibleTags is every tag the extractor can emit from free text:
// synonym and cue tags plus "<part> pain" for each body part
func ProducibleTags(kb *knowledge.KnowledgeBase) map[model.SymptomTag]bool {
	tags := make(map[model.SymptomTag]bool)
	for _, e := range kb.Synonyms() {
		tags[e.Tag] = true
	}
	for _, e := range kb.Cues() {
		tags[e.Tag] = true
	}
	for _, p := range kb.BodyParts() {
		tags[model.SymptomTag(p.Part+" pain")] = true
	}
	return tags
}

func unreachableSymptoms(kb *knowledge.KnowledgeBase, produced map[model.SymptomTag]bool) []Issue {
	var issues []Issue
	for _, c := range kb.Conditions() {
		for _, s := range c.ReferenceSymptoms {
			if produced[s] {
				continue
			}
			issues = append(issues, Issue{
				Level:   LevelInfo,
				Check:   CheckUnreachableSymptom,
				Subject: c.Name,
				Message: fmt.Sprintf("reference symptom %q is never extracted; it only matches by word containment", s),
			})
		}
	}
	return issues
}

func unknownWeights(kb *knowledge.KnowledgeBase, produced, referenced map[model.SymptomTag]bool) []Issue {
	weights := kb.SeverityWeights()
	tags := make([]string, 0, len(weights))
	for tag := range weights {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)

	var issues []Issue
	for _, tag := range tags {
		t := model.SymptomTag(tag)
		if produced[t] || referenced[t] {
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelWarning,
			Check:   CheckUnknownWeight,
			Subject: tag,
			Message: "severity weight for a tag that is neither extracted nor referenced by a condition",
		})
	}
	return issues
}

func unreachableEmergencies(kb *knowledge.KnowledgeBase, produced map[model.SymptomTag]bool) []Issue {
	var issues []Issue
	for _, tag := range kb.EmergencySymptoms() {
		if produced[tag] {
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelInfo,
			Check:   CheckUnreachableEmergency,
			Subject: string(tag),
			Message: "emergency symptom is not extracted from free text; it fires only as a substring of another tag",
		})
	}
	return issues
}

func duplicateSynonyms(kb *knowledge.KnowledgeBase) []Issue {
	owner := make(map[string]model.SymptomTag)
	var issues []Issue
	for _, e := range kb.Synonyms() {
		for _, term := range e.Terms {
			first, ok := owner[term]
			if !ok {
				owner[term] = e.Tag
				continue
			}
			if first == e.Tag {
				continue
			}
			issues = append(issues, Issue{
				Level:   LevelWarning,
				Check:   CheckDuplicateSynonym,
				Subject: term,
				Message: fmt.Sprintf("synonym of both %q and %q", first, e.Tag),
			})
		}
	}
	return issues
}

func unknownQuickPicks(kb *knowledge.KnowledgeBase, produced map[model.SymptomTag]bool) []Issue {
	var issues []Issue
	for _, label := range kb.QuickPicks() {
		tag := model.SymptomTag(clean(label))
		if produced[tag] {
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelWarning,
			Check:   CheckUnknownQuickPick,
			Subject: label,
			Message: "quick pick does not name an extractable symptom",
		})
	}
	return issues
}

func missingAdjustments(kb *knowledge.KnowledgeBase) []Issue {
	var issues []Issue
	for _, c := range kb.Conditions() {
		if kb.HasAgeRule(c.Name) || kb.HasGenderRule(c.Name) {
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelInfo,
			Check:   CheckNoAdjustment,
			Subject: c.Name,
			Message: "no age or gender rule; both adjustments use the default weight",
		})
	}
	return issues
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
