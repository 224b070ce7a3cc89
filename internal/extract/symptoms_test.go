package extract

import (
	"testing"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

func newExtractor() *SymptomExtractor {
	return NewSymptomExtractor(knowledge.Default())
}

func hasTag(tags []model.SymptomTag, want model.SymptomTag) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func TestSymptomExtractor_HeadacheScenario(t *testing.T) {
	tags := newExtractor().Extract("I have a severe headache and nausea for 3 days")

	for _, want := range []model.SymptomTag{"headache", "nausea"} {
		if !hasTag(tags, want) {
			t.Errorf("expected tag %q in %v", want, tags)
		}
	}

	for _, emergency := range knowledge.Default().EmergencySymptoms() {
		if hasTag(tags, emergency) {
			t.Errorf("did not expect emergency tag %q in %v", emergency, tags)
		}
	}
}

func TestSymptomExtractor_FeverAlwaysFound(t *testing.T) {
	inputs := []string{
		"fever",
		"I have a FEVER.",
		"No fever today, just tired",
		"Started with a cough. Then fever came on at night!",
	}

	e := newExtractor()
	for _, input := range inputs {
		if tags := e.Extract(input); !hasTag(tags, "fever") {
			t.Errorf("Extract(%q) = %v, expected fever", input, tags)
		}
	}
}

func TestSymptomExtractor_NegationIsNotHandled(t *testing.T) {
	tags := newExtractor().Extract("I do not have a cough")
	if !hasTag(tags, "cough") {
		t.Errorf("expected negated symptom to still be tagged, got %v", tags)
	}
}

func TestSymptomExtractor_BodyPartPain(t *testing.T) {
	e := newExtractor()

	tags := e.Extract("My knee hurts when I walk")
	if !hasTag(tags, "legs pain") {
		t.Errorf("expected legs pain, got %v", tags)
	}

	// Co-occurrence is per sentence
	tags = e.Extract("My head is fine. My leg hurts.")
	if hasTag(tags, "head pain") {
		t.Errorf("did not expect head pain across sentences, got %v", tags)
	}
	if !hasTag(tags, "legs pain") {
		t.Errorf("expected legs pain, got %v", tags)
	}
}

func TestSymptomExtractor_Synonyms(t *testing.T) {
	tests := []struct {
		input string
		want  model.SymptomTag
	}{
		{"I've been throwing up all night", "vomiting"},
		{"feeling lightheaded", "dizziness"},
		{"I'm short of breath and it's hard to breathe", "difficulty breathing"},
		{"I have a stuffy nose", "runny nose"},
		{"always thirsty lately", "increased thirst"},
		{"I passed out at work", "loss of consciousness"},
		{"there is an itchy patch", "skin rash"},
		{"I can't sleep", "insomnia"},
	}

	e := newExtractor()
	for _, tt := range tests {
		if tags := e.Extract(tt.input); !hasTag(tags, tt.want) {
			t.Errorf("Extract(%q) = %v, expected %q", tt.input, tags, tt.want)
		}
	}
}

func TestSymptomExtractor_AllergicReaction(t *testing.T) {
	tags := newExtractor().Extract("severe allergic reaction, can't breathe")

	if !hasTag(tags, "severe allergic reaction") {
		t.Errorf("expected severe allergic reaction, got %v", tags)
	}
	if !hasTag(tags, "difficulty breathing") {
		t.Errorf("expected difficulty breathing, got %v", tags)
	}
}

func TestSymptomExtractor_Dedupes(t *testing.T) {
	tags := newExtractor().Extract("I have a fever. The fever is worse! Still feverish?")

	count := 0
	for _, tag := range tags {
		if tag == "fever" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected fever exactly once, got %d in %v", count, tags)
	}
}

func TestSymptomExtractor_OrderFollowsTables(t *testing.T) {
	tags := newExtractor().Extract("nausea and a headache")

	// The synonym table lists pain, fever, headache, nausea in that order
	if len(tags) < 2 {
		t.Fatalf("expected several tags, got %v", tags)
	}
	headache, nausea := -1, -1
	for i, tag := range tags {
		switch tag {
		case "headache":
			headache = i
		case "nausea":
			nausea = i
		}
	}
	if headache < 0 || nausea < 0 || headache > nausea {
		t.Errorf("expected headache before nausea, got %v", tags)
	}
}

func TestSymptomExtractor_Empty(t *testing.T) {
	e := newExtractor()
	for _, input := range []string{"", "   ", "\n\t"} {
		if tags := e.Extract(input); len(tags) != 0 {
			t.Errorf("Extract(%q) = %v, expected no tags", input, tags)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"One. Two? Three!", 3},
		{"Temperature of 38.5 degrees today.", 1},
		{"line one\nline two", 2},
		{"no terminator", 1},
		{"", 0},
		{"...", 1},
	}

	for _, tt := range tests {
		if got := splitSentences(tt.input); len(got) != tt.want {
			t.Errorf("splitSentences(%q) = %v, want %d sentences", tt.input, got, tt.want)
		}
	}
}

func TestMergeTags(t *testing.T) {
	merged := MergeTags([]model.SymptomTag{"fever", "cough"}, "cough", "nausea")

	want := []model.SymptomTag{"fever", "cough", "nausea"}
	if len(merged) != len(want) {
		t.Fatalf("expected %v, got %v", want, merged)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], merged[i])
		}
	}
}
