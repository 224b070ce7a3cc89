package model

import (
	"testing"
	"time"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"30", intPtr(30)},
		{" 42 years", intPtr(42)},
		{"+7", intPtr(7)},
		{"-0", intPtr(0)},
		{"0", intPtr(0)},
		{"-5", nil},
		{"abc", nil},
		{"", nil},
		{"2000", nil},
	}

	for _, tt := range tests {
		got := ParseAge(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseAge(%q) = %d, want nil", tt.in, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ParseAge(%q) = nil, want %d", tt.in, *tt.want)
		case tt.want != nil && *got != *tt.want:
			t.Errorf("ParseAge(%q) = %d, want %d", tt.in, *got, *tt.want)
		}
	}
}

func intPtr(v int) *int { return &v }

func TestParseGender(t *testing.T) {
	tests := map[string]Gender{
		"female":  GenderFemale,
		" Male ":  GenderMale,
		"f":       GenderFemale,
		"other":   GenderOther,
		"":        GenderUnspecified,
		"unknown": GenderUnspecified,
	}
	for in, want := range tests {
		if got := ParseGender(in); got != want {
			t.Errorf("ParseGender(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIntake_IsEmpty(t *testing.T) {
	if !(Intake{Text: " \n\t "}).IsEmpty() {
		t.Error("whitespace-only text should be empty")
	}
	if (Intake{Selected: []string{"Fever"}}).IsEmpty() {
		t.Error("a quick pick alone is not empty")
	}
	if (Intake{Text: "fever"}).IsEmpty() {
		t.Error("text is not empty")
	}
}

func TestIntake_Attributes(t *testing.T) {
	attrs := Intake{Age: "65", Gender: "M", Duration: " 3 days "}.Attributes()
	if attrs.Age == nil || *attrs.Age != 65 || attrs.Gender != GenderMale || attrs.Duration != "3 days" {
		t.Errorf("unexpected attributes: %+v", attrs)
	}
}

func TestSeverity_Valid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Severity("critical").Valid() {
		t.Error("unknown severity should be invalid")
	}
}

func TestAnalysisResult_TopMatch(t *testing.T) {
	if _, ok := (AnalysisResult{}).TopMatch(); ok {
		t.Error("expected no top match")
	}

	r := &Report{Result: AnalysisResult{PossibleConditions: []ConditionMatch{
		{Name: "Migraine", Confidence: 55},
		{Name: "Hypertension", Confidence: 48},
	}}}
	top, ok := r.Result.TopMatch()
	if !ok || top.Name != "Migraine" {
		t.Errorf("unexpected top match %+v", top)
	}
	names := r.ConditionNames()
	if len(names) != 2 || names[1] != "Hypertension" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative delay", func(c *Config) { c.Analysis.Delay = -time.Second }},
		{"unknown network", func(c *Config) { c.Analysis.Network = "trained" }},
		{"network value above 1", func(c *Config) { c.Analysis.NetworkValue = 1.5 }},
		{"negative TTL", func(c *Config) { c.Cache.DiskTTL = -time.Minute }},
		{"negative rate", func(c *Config) { c.Server.RequestsPerSecond = -1 }},
		{"unknown log format", func(c *Config) { c.Output.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
