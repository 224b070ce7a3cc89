package model

import (
	"strings"
	"unicode"
)

// SymptomTag is a canonical symptom from the fixed vocabulary (e.g. "fever")
type SymptomTag string

// Severity is the base severity of a catalog condition
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Urgency is the tier that drives which recommendation template is used
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Gender is the coarse patient gender used by the scorer's adjustment table
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
)

// ParseGender maps free-form input onto a Gender. Anything unknown is unspecified.
func ParseGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "man":
		return GenderMale
	case "female", "f", "woman":
		return GenderFemale
	case "other":
		return GenderOther
	default:
		return GenderUnspecified
	}
}

// PatientAttributes are the coarse attributes supplied alongside the symptoms
type PatientAttributes struct {
	Age      *int   `json:"age,omitempty"`
	Gender   Gender `json:"gender,omitempty"`
	Duration string `json:"duration,omitempty"` // Free text, not used in scoring
}

// ParseAge reads a leading integer the way a web form would ("30", " 42 years").
// Returns nil when no digits lead the string or the value is negative.
func ParseAge(raw string) *int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	negative := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	age, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		age = age*10 + int(r-'0')
		digits++
		if age > 1000 {
			// Anything this large is not an age.
			return nil
		}
	}

	if digits == 0 || (negative && age != 0) {
		return nil
	}
	return &age
}

// NewPatientAttributes builds attributes from raw form values
func NewPatientAttributes(age, gender, duration string) PatientAttributes {
	return PatientAttributes{
		Age:      ParseAge(age),
		Gender:   ParseGender(gender),
		Duration: strings.TrimSpace(duration),
	}
}

// SymptomContext holds descriptive signals found in the text.
// It is informational only and never feeds the scorer.
type SymptomContext struct {
	Severity  []string `json:"severity,omitempty"`   // mild, moderate, severe
	Duration  []string `json:"duration,omitempty"`   // acute, chronic
	BodyParts []string `json:"body_parts,omitempty"` // head, chest, abdomen, ...
}

// Intake is one request for analysis as it arrives from a caller
type Intake struct {
	Text     string   `json:"text" yaml:"text"`
	Age      string   `json:"age,omitempty" yaml:"age,omitempty"`
	Gender   string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	Duration string   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Selected []string `json:"selected,omitempty" yaml:"selected,omitempty"` // Quick-pick labels
}

// Attributes parses the raw patient fields of the intake
func (i Intake) Attributes() PatientAttributes {
	return NewPatientAttributes(i.Age, i.Gender, i.Duration)
}

// IsEmpty reports whether there is nothing to analyze
func (i Intake) IsEmpty() bool {
	return strings.TrimSpace(i.Text) == "" && len(i.Selected) == 0
}
