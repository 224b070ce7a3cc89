package score

import (
	"math/rand/v2"
	"testing"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

func intPtr(v int) *int { return &v }

func constantScorer(value float64) *Scorer {
	kb := knowledge.Default()
	return NewScorer(kb, ConstantNetwork{Value: value, Outputs: len(kb.Conditions())})
}

func TestScorer_Score_HeadacheScenario(t *testing.T) {
	scorer := constantScorer(0)

	tags := []model.SymptomTag{"pain", "headache", "nausea", "head pain"}
	attrs := model.PatientAttributes{Age: intPtr(30), Gender: model.GenderFemale}

	matches := scorer.Score(tags, attrs)

	want := []struct {
		name       string
		confidence int
	}{
		{"Migraine", 55},
		{"Influenza (Flu)", 51},
		{"Gastroenteritis", 50},
		{"Hypertension", 48},
	}

	if len(matches) != len(want) {
		t.Fatalf("expected %d matches, got %d: %+v", len(want), len(matches), matches)
	}
	for i, w := range want {
		if matches[i].Name != w.name || matches[i].Confidence != w.confidence {
			t.Errorf("match %d: expected %s (%d), got %s (%d)", i, w.name, w.confidence, matches[i].Name, matches[i].Confidence)
		}
	}

	top := matches[0]
	if top.Breakdown.Lexical != 1 || top.Breakdown.Age != 0.8 || top.Breakdown.Gender != 0.7 {
		t.Errorf("unexpected breakdown for top match: %+v", top.Breakdown)
	}
	if top.Severity != model.SeverityMedium {
		t.Errorf("expected medium severity, got %s", top.Severity)
	}
}

func TestScorer_Score_TiesKeepCatalogOrder(t *testing.T) {
	scorer := constantScorer(0.5)

	// No tags and no attributes: every condition scores 0.2+0.05+0.05 = 30
	matches := scorer.Score(nil, model.PatientAttributes{})

	want := []string{"Common Cold", "Influenza (Flu)", "Migraine", "Gastroenteritis"}
	if len(matches) != len(want) {
		t.Fatalf("expected %d matches, got %d", len(want), len(matches))
	}
	for i, name := range want {
		if matches[i].Name != name || matches[i].Confidence != 30 {
			t.Errorf("match %d: expected %s (30), got %s (%d)", i, name, matches[i].Name, matches[i].Confidence)
		}
	}
}

func TestScorer_Score_ThresholdIsExclusive(t *testing.T) {
	kb, err := knowledge.Parse([]byte(`
conditions:
  - {name: Edge, symptoms: [a], severity: low}
  - {name: Above, symptoms: [b], severity: low}
`))
	if err != nil {
		t.Fatal(err)
	}

	// Edge: 0.1 + 0.05 + 0.05 = 20, filtered
	// Above: 0.4 + 0.1 + 0.05 + 0.05 = 60
	scorer := NewScorer(kb, ConstantNetwork{Value: 0.25, Outputs: 2})
	matches := scorer.Score([]model.SymptomTag{"b"}, model.PatientAttributes{})

	if len(matches) != 1 || matches[0].Name != "Above" {
		t.Fatalf("expected only Above, got %+v", matches)
	}
}

func TestScorer_Score_CapsAt95(t *testing.T) {
	kb, err := knowledge.Parse([]byte(`
conditions:
  - name: Certain
    symptoms: [fever]
    severity: high
    age:
      bands: [{min: 0, weight: 1.0}]
    gender: {male: 1.0}
`))
	if err != nil {
		t.Fatal(err)
	}

	scorer := NewScorer(kb, ConstantNetwork{Value: 1, Outputs: 1})
	matches := scorer.Score([]model.SymptomTag{"fever"}, model.PatientAttributes{Age: intPtr(40), Gender: model.GenderMale})

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Confidence != MaxConfidence {
		t.Errorf("expected confidence capped at %d, got %d", MaxConfidence, matches[0].Confidence)
	}
}

func TestScorer_Score_MissingPredictionsCountAsZero(t *testing.T) {
	kb := knowledge.Default()
	scorer := NewScorer(kb, ConstantNetwork{Value: 1, Outputs: 0})

	matches := scorer.Score([]model.SymptomTag{"nausea"}, model.PatientAttributes{})
	for _, m := range matches {
		if m.Breakdown.Neural != 0 {
			t.Errorf("%s: expected neural 0 without predictions, got %v", m.Name, m.Breakdown.Neural)
		}
	}
}

func TestScorer_Score_Invariants(t *testing.T) {
	kb := knowledge.Default()
	scorer := NewScorer(kb, NewProcessNetwork(kb, len(kb.Conditions())))

	vocabulary := []model.SymptomTag{
		"fever", "cough", "headache", "nausea", "chest pain", "fatigue", "dizziness",
		"runny nose", "sneezing", "difficulty breathing", "vomiting", "diarrhea",
		"increased thirst", "blurred vision", "pain", "head pain", "skin rash",
	}
	genders := []model.Gender{model.GenderUnspecified, model.GenderMale, model.GenderFemale, model.GenderOther}

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 300; i++ {
		var tags []model.SymptomTag
		for _, tag := range vocabulary {
			if rng.IntN(3) == 0 {
				tags = append(tags, tag)
			}
		}
		attrs := model.PatientAttributes{Gender: genders[rng.IntN(len(genders))]}
		if rng.IntN(2) == 0 {
			attrs.Age = intPtr(rng.IntN(100))
		}

		matches := scorer.Score(tags, attrs)

		if len(matches) > MaxMatches {
			t.Fatalf("expected at most %d matches, got %d", MaxMatches, len(matches))
		}
		for j, m := range matches {
			if m.Confidence <= MinConfidence || m.Confidence > MaxConfidence {
				t.Fatalf("confidence %d outside (%d,%d]", m.Confidence, MinConfidence, MaxConfidence)
			}
			if j > 0 && matches[j-1].Confidence < m.Confidence {
				t.Fatalf("matches not sorted: %d before %d", matches[j-1].Confidence, m.Confidence)
			}
		}

		again := scorer.Score(tags, attrs)
		if len(again) != len(matches) {
			t.Fatalf("repeated scoring changed result length")
		}
		for j := range again {
			if again[j].Name != matches[j].Name || again[j].Confidence != matches[j].Confidence {
				t.Fatalf("repeated scoring changed result at %d", j)
			}
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b model.SymptomTag
		want float64
	}{
		{"fever", "fever", 1},
		{"headache", "severe headache", 0.5},
		{"head pain", "headache", 0.5},
		{"chest pain", "Chest Pain", 1},
		{"muscle ache", "muscle aches", 1},
		{"cough", "sneezing", 0},
		{"", "fever", 0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestScorer_CalculateMatchScore(t *testing.T) {
	scorer := constantScorer(0)

	if got := scorer.calculateMatchScore(nil, []model.SymptomTag{"fever"}); got != 0 {
		t.Errorf("expected 0 for no tags, got %v", got)
	}
	if got := scorer.calculateMatchScore([]model.SymptomTag{"cough"}, []model.SymptomTag{"fever"}); got != 0 {
		t.Errorf("expected 0 for no overlap, got %v", got)
	}

	// Only exact pairs clear the threshold; the weighted mean of 1.0 similarities is 1
	got := scorer.calculateMatchScore([]model.SymptomTag{"fever", "cough"}, []model.SymptomTag{"fever", "cough", "chills"})
	if got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}
