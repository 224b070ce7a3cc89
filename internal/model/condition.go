package model

// ConditionRecord is a static catalog entry. Loaded once, never mutated.
type ConditionRecord struct {
	Name              string       `json:"name" yaml:"name"`
	ReferenceSymptoms []SymptomTag `json:"symptoms" yaml:"symptoms"`
	Severity          Severity     `json:"severity" yaml:"severity"`
	Description       string       `json:"description" yaml:"description"`
	Treatment         []string     `json:"treatment,omitempty" yaml:"treatment,omitempty"`
}

// ConditionMatch is a scored condition for a single analysis
type ConditionMatch struct {
	Name        string         `json:"name"`
	Confidence  int            `json:"confidence"` // 0-95, never certainty
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Symptoms    []SymptomTag   `json:"symptoms,omitempty"` // Reference symptoms of the condition
	Breakdown   ScoreBreakdown `json:"breakdown"`
}

// ScoreBreakdown exposes the inputs of the confidence formula
type ScoreBreakdown struct {
	Lexical float64 `json:"lexical"`
	Neural  float64 `json:"neural"`
	Age     float64 `json:"age"`
	Gender  float64 `json:"gender"`
	Formula string  `json:"formula"`
}
