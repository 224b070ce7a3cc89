package score

import (
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

const (
	// MaxConfidence caps every score; the analyzer never claims certainty
	MaxConfidence = 95
	// MinConfidence is the exclusive threshold for reporting a condition
	MinConfidence = 20
	// MaxMatches bounds the number of reported conditions
	MaxMatches = 4

	similarityThreshold = 0.6

	lexicalWeight = 0.4
	neuralWeight  = 0.4
	ageWeight     = 0.1
	genderWeight  = 0.1

	formula = "round((0.4*lexical + 0.4*neural + 0.1*age + 0.1*gender) * 100), capped at 95"
)

// Scorer ranks catalog conditions against a set of symptom tags
type Scorer struct {
	kb         *knowledge.KnowledgeBase
	conditions []model.ConditionRecord
	network    Network
}

// NewScorer creates a scorer over the knowledge base catalog
func NewScorer(kb *knowledge.KnowledgeBase, network Network) *Scorer {
	return &Scorer{
		kb:         kb,
		conditions: kb.Conditions(),
		network:    network,
	}
}

// Network returns the perturbation network in use
func (s *Scorer) Network() Network {
	return s.network
}

// Score returns at most MaxMatches conditions with confidence above
// MinConfidence, sorted by descending confidence. Ties keep catalog order.
func (s *Scorer) Score(tags []model.SymptomTag, attrs model.PatientAttributes) []model.ConditionMatch {
	predictions := s.network.Predict(tags)

	matches := make([]model.ConditionMatch, 0, len(s.conditions))
	for i, condition := range s.conditions {
		breakdown := model.ScoreBreakdown{
			Lexical: s.calculateMatchScore(tags, condition.ReferenceSymptoms),
			Neural:  prediction(predictions, i),
			Age:     s.kb.AgeWeight(condition.Name, attrs.Age),
			Gender:  s.kb.GenderWeight(condition.Name, attrs.Gender),
			Formula: formula,
		}

		confidence := finalConfidence(breakdown)
		if confidence <= MinConfidence {
			continue
		}

		matches = append(matches, model.ConditionMatch{
			Name:        condition.Name,
			Confidence:  confidence,
			Severity:    condition.Severity,
			Description: condition.Description,
			Symptoms:    condition.ReferenceSymptoms,
			Breakdown:   breakdown,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Confidence > matches[b].Confidence
	})

	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}

// calculateMatchScore is the severity-weighted mean similarity of the
// (user tag, reference tag) pairs that clear the similarity threshold
func (s *Scorer) calculateMatchScore(userTags, referenceTags []model.SymptomTag) float64 {
	matched := 0.0
	totalWeight := 0.0

	for _, userTag := range userTags {
		for _, refTag := range referenceTags {
			similarity := Similarity(userTag, refTag)
			if similarity > similarityThreshold {
				weight := s.kb.SeverityWeight(userTag)
				matched += similarity * weight
				totalWeight += weight
			}
		}
	}

	if totalWeight == 0 {
		return 0
	}
	return matched / totalWeight
}

// Similarity is the share of words two tags have in common, relative to the
// longer tag. Words are common when one contains the other ("head" and "headache").
func Similarity(a, b model.SymptomTag) float64 {
	words1 := strings.Fields(strings.ToLower(string(a)))
	words2 := strings.Fields(strings.ToLower(string(b)))

	longest := max(len(words1), len(words2))
	if longest == 0 {
		return 0
	}

	common := 0
	for _, w1 := range words1 {
		for _, w2 := range words2 {
			if strings.Contains(w2, w1) || strings.Contains(w1, w2) {
				common++
				break
			}
		}
	}

	return float64(common) / float64(longest)
}

func finalConfidence(b model.ScoreBreakdown) int {
	raw := (b.Lexical*lexicalWeight + b.Neural*neuralWeight + b.Age*ageWeight + b.Gender*genderWeight) * 100
	confidence := int(math.Round(math.Min(raw, MaxConfidence)))
	if confidence < 0 {
		return 0
	}
	return confidence
}

func prediction(predictions []float64, i int) float64 {
	if i < len(predictions) {
		return predictions[i]
	}
	return 0
}
