package extract

import (
	"strings"
	"unicode"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

// SymptomExtractor maps free text onto canonical symptom tags.
//
// Matching is plain substring containment per sentence against three tables:
// synonyms, body part x pain word co-occurrence, and cue words. There is no
// stemming, spelling correction or negation handling: "no fever" yields fever.
type SymptomExtractor struct {
	synonyms  []knowledge.TermEntry
	cues      []knowledge.TermEntry
	bodyParts []knowledge.BodyPart
	painWords []string
	severity  []knowledge.SeverityIndicator
	duration  []knowledge.DurationIndicator
}

// NewSymptomExtractor creates an extractor over the given knowledge base
func NewSymptomExtractor(kb *knowledge.KnowledgeBase) *SymptomExtractor {
	return &SymptomExtractor{
		synonyms:  kb.Synonyms(),
		cues:      kb.Cues(),
		bodyParts: kb.BodyParts(),
		painWords: kb.PainWords(),
		severity:  kb.SeverityIndicators(),
		duration:  kb.DurationIndicators(),
	}
}

// Extract returns the distinct tags found in text, in order of first match
func (e *SymptomExtractor) Extract(text string) []model.SymptomTag {
	lower := strings.ToLower(text)

	var tags []model.SymptomTag
	for _, sentence := range splitSentences(lower) {
		tags = append(tags, e.processSentence(sentence)...)
	}

	return dedupeTags(tags)
}

func (e *SymptomExtractor) processSentence(sentence string) []model.SymptomTag {
	var tags []model.SymptomTag

	// Canonical terms and their synonyms
	for _, entry := range e.synonyms {
		if strings.Contains(sentence, string(entry.Tag)) || containsAny(sentence, entry.Terms) {
			tags = append(tags, entry.Tag)
		}
	}

	// Body part mentioned together with a pain word
	for _, part := range e.bodyParts {
		for _, term := range part.Terms {
			if strings.Contains(sentence, term) && containsAny(sentence, e.painWords) {
				tags = append(tags, model.SymptomTag(part.Part+" pain"))
			}
		}
	}

	// Single-word cues
	for _, cue := range e.cues {
		if containsAny(sentence, cue.Terms) {
			tags = append(tags, cue.Tag)
		}
	}

	return tags
}

// splitSentences splits text on sentence terminators and line breaks
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}

		current.WriteRune(r)

		// A terminator only ends a sentence when followed by whitespace or the end
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// dedupeTags removes repeated tags, keeping the first occurrence
func dedupeTags(tags []model.SymptomTag) []model.SymptomTag {
	seen := make(map[model.SymptomTag]bool, len(tags))
	unique := make([]model.SymptomTag, 0, len(tags))

	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			unique = append(unique, tag)
		}
	}

	return unique
}

// MergeTags appends extra to base, dropping duplicates
func MergeTags(base []model.SymptomTag, extra ...model.SymptomTag) []model.SymptomTag {
	merged := make([]model.SymptomTag, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return dedupeTags(merged)
}
