// Package knowledge holds the static medical tables used by the analysis
// pipeline: synonyms, cue words, body parts, severity weights and the
// condition catalog. The tables are parsed once and are read-only afterwards.
package knowledge

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ppiankov/symptia/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultWeight is used wherever a table has no entry
const DefaultWeight = 0.5

// ErrInvalidKnowledgeBase is returned when a knowledge file fails validation
var ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")

//go:embed knowledge.yaml
var embedded []byte

// TermEntry maps a canonical tag to the phrases that signal it
type TermEntry struct {
	Tag   model.SymptomTag `yaml:"tag"`
	Terms []string         `yaml:"terms"`
}

// BodyPart maps a body region to the words that name it
type BodyPart struct {
	Part  string   `yaml:"part"`
	Terms []string `yaml:"terms"`
}

// SeverityIndicator maps an intensity level to its modifiers
type SeverityIndicator struct {
	Level string   `yaml:"level"`
	Terms []string `yaml:"terms"`
}

// DurationIndicator maps a duration kind to its phrases
type DurationIndicator struct {
	Kind  string   `yaml:"kind"`
	Terms []string `yaml:"terms"`
}

// AgeBand is an inclusive age range with its likelihood weight
type AgeBand struct {
	Min    *int    `yaml:"min,omitempty"`
	Max    *int    `yaml:"max,omitempty"`
	Weight float64 `yaml:"weight"`
}

func (b AgeBand) contains(age int) bool {
	return (b.Min == nil || age >= *b.Min) && (b.Max == nil || age <= *b.Max)
}

// AgeRule picks the first matching band, else Otherwise
type AgeRule struct {
	Bands     []AgeBand `yaml:"bands"`
	Otherwise *float64  `yaml:"otherwise,omitempty"`
}

type conditionEntry struct {
	model.ConditionRecord `yaml:",inline"`
	Age                   *AgeRule           `yaml:"age,omitempty"`
	Gender                map[string]float64 `yaml:"gender,omitempty"`
}

type document struct {
	Synonyms           []TermEntry         `yaml:"synonyms"`
	Cues               []TermEntry         `yaml:"cues"`
	BodyParts          []BodyPart          `yaml:"body_parts"`
	PainWords          []string            `yaml:"pain_words"`
	SeverityWeights    map[string]float64  `yaml:"severity_weights"`
	EmergencySymptoms  []model.SymptomTag  `yaml:"emergency_symptoms"`
	SeverityIndicators []SeverityIndicator `yaml:"severity_indicators"`
	DurationIndicators []DurationIndicator `yaml:"duration_indicators"`
	QuickPicks         []string            `yaml:"quick_picks"`
	Conditions         []conditionEntry    `yaml:"conditions"`
}

// KnowledgeBase is the immutable set of lookup tables
type KnowledgeBase struct {
	doc         document
	conditions  map[string]int // name -> catalog index
	fingerprint string
}

var (
	defaultOnce sync.Once
	defaultKB   *KnowledgeBase
)

// Default returns the embedded knowledge base, parsed on first use
func Default() *KnowledgeBase {
	defaultOnce.Do(func() {
		kb, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded knowledge base: %v", err))
		}
		defaultKB = kb
	})
	return defaultKB
}

// Load reads a knowledge base from a YAML file
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	kb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kb, nil
}

// LoadOrDefault loads path, or returns the embedded base when path is empty
func LoadOrDefault(path string) (*KnowledgeBase, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes and validates a knowledge base document
func Parse(data []byte) (*KnowledgeBase, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKnowledgeBase, err)
	}

	normalize(&doc)

	if err := validate(&doc); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(doc.Conditions))
	for i, c := range doc.Conditions {
		index[c.Name] = i
	}

	sum := sha256.Sum256(data)
	return &KnowledgeBase{
		doc:         doc,
		conditions:  index,
		fingerprint: hex.EncodeToString(sum[:8]),
	}, nil
}

// normalize lower-cases every matchable phrase
func normalize(doc *document) {
	lowerTerms := func(entries []TermEntry) {
		for i := range entries {
			entries[i].Tag = model.SymptomTag(clean(string(entries[i].Tag)))
			entries[i].Terms = lowerAll(entries[i].Terms)
		}
	}
	lowerTerms(doc.Synonyms)
	lowerTerms(doc.Cues)

	for i := range doc.BodyParts {
		doc.BodyParts[i].Part = clean(doc.BodyParts[i].Part)
		doc.BodyParts[i].Terms = lowerAll(doc.BodyParts[i].Terms)
	}
	for i := range doc.SeverityIndicators {
		doc.SeverityIndicators[i].Terms = lowerAll(doc.SeverityIndicators[i].Terms)
	}
	for i := range doc.DurationIndicators {
		doc.DurationIndicators[i].Terms = lowerAll(doc.DurationIndicators[i].Terms)
	}
	doc.PainWords = lowerAll(doc.PainWords)

	weights := make(map[string]float64, len(doc.SeverityWeights))
	for tag, w := range doc.SeverityWeights {
		weights[clean(tag)] = w
	}
	doc.SeverityWeights = weights

	for i, tag := range doc.EmergencySymptoms {
		doc.EmergencySymptoms[i] = model.SymptomTag(clean(string(tag)))
	}
	for i := range doc.Conditions {
		c := &doc.Conditions[i]
		c.Name = strings.TrimSpace(c.Name)
		for j, tag := range c.ReferenceSymptoms {
			c.ReferenceSymptoms[j] = model.SymptomTag(clean(string(tag)))
		}
	}
}

func validate(doc *document) error {
	if len(doc.Conditions) == 0 {
		return fmt.Errorf("%w: catalog has no conditions", ErrInvalidKnowledgeBase)
	}

	seen := make(map[string]bool)
	for _, c := range doc.Conditions {
		if c.Name == "" {
			return fmt.Errorf("%w: condition without a name", ErrInvalidKnowledgeBase)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate condition %q", ErrInvalidKnowledgeBase, c.Name)
		}
		seen[c.Name] = true

		if !c.Severity.Valid() {
			return fmt.Errorf("%w: condition %q: unknown severity %q", ErrInvalidKnowledgeBase, c.Name, c.Severity)
		}
		if len(c.ReferenceSymptoms) == 0 {
			return fmt.Errorf("%w: condition %q has no reference symptoms", ErrInvalidKnowledgeBase, c.Name)
		}
		if c.Age != nil {
			for _, b := range c.Age.Bands {
				if err := checkWeight(b.Weight); err != nil {
					return fmt.Errorf("%w: condition %q age band: %v", ErrInvalidKnowledgeBase, c.Name, err)
				}
			}
			if c.Age.Otherwise != nil {
				if err := checkWeight(*c.Age.Otherwise); err != nil {
					return fmt.Errorf("%w: condition %q age otherwise: %v", ErrInvalidKnowledgeBase, c.Name, err)
				}
			}
		}
		for g, w := range c.Gender {
			if err := checkWeight(w); err != nil {
				return fmt.Errorf("%w: condition %q gender %q: %v", ErrInvalidKnowledgeBase, c.Name, g, err)
			}
		}
	}

	for _, e := range append(append([]TermEntry{}, doc.Synonyms...), doc.Cues...) {
		if e.Tag == "" {
			return fmt.Errorf("%w: term entry without a tag", ErrInvalidKnowledgeBase)
		}
	}
	if len(doc.BodyParts) > 0 && len(doc.PainWords) == 0 {
		return fmt.Errorf("%w: body parts require pain words", ErrInvalidKnowledgeBase)
	}
	for tag, w := range doc.SeverityWeights {
		if err := checkWeight(w); err != nil {
			return fmt.Errorf("%w: severity weight %q: %v", ErrInvalidKnowledgeBase, tag, err)
		}
	}
	return nil
}

func checkWeight(w float64) error {
	if w < 0 || w > 1 {
		return fmt.Errorf("weight %.2f outside [0,1]", w)
	}
	return nil
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = clean(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fingerprint identifies the source document; two bases with the same
// fingerprint produce the same analyses
func (kb *KnowledgeBase) Fingerprint() string {
	return kb.fingerprint
}

// Synonyms returns the ordered canonical-tag -> synonyms table
func (kb *KnowledgeBase) Synonyms() []TermEntry {
	return cloneEntries(kb.doc.Synonyms)
}

// Cues returns the ordered cue table
func (kb *KnowledgeBase) Cues() []TermEntry {
	return cloneEntries(kb.doc.Cues)
}

// BodyParts returns the body region vocabulary
func (kb *KnowledgeBase) BodyParts() []BodyPart {
	out := make([]BodyPart, len(kb.doc.BodyParts))
	for i, p := range kb.doc.BodyParts {
		out[i] = BodyPart{Part: p.Part, Terms: append([]string(nil), p.Terms...)}
	}
	return out
}

// PainWords returns the words that mark a body part as painful
func (kb *KnowledgeBase) PainWords() []string {
	return append([]string(nil), kb.doc.PainWords...)
}

// SeverityWeight returns the weight of a tag, DefaultWeight if unlisted
func (kb *KnowledgeBase) SeverityWeight(tag model.SymptomTag) float64 {
	if w, ok := kb.doc.SeverityWeights[string(tag)]; ok {
		return w
	}
	return DefaultWeight
}

// SeverityWeights returns a copy of the explicit weight table
func (kb *KnowledgeBase) SeverityWeights() map[model.SymptomTag]float64 {
	out := make(map[model.SymptomTag]float64, len(kb.doc.SeverityWeights))
	for tag, w := range kb.doc.SeverityWeights {
		out[model.SymptomTag(tag)] = w
	}
	return out
}

// EmergencySymptoms returns the tags that force high urgency
func (kb *KnowledgeBase) EmergencySymptoms() []model.SymptomTag {
	return append([]model.SymptomTag(nil), kb.doc.EmergencySymptoms...)
}

// SeverityIndicators returns the intensity modifiers
func (kb *KnowledgeBase) SeverityIndicators() []SeverityIndicator {
	out := make([]SeverityIndicator, len(kb.doc.SeverityIndicators))
	for i, s := range kb.doc.SeverityIndicators {
		out[i] = SeverityIndicator{Level: s.Level, Terms: append([]string(nil), s.Terms...)}
	}
	return out
}

// DurationIndicators returns the duration phrases
func (kb *KnowledgeBase) DurationIndicators() []DurationIndicator {
	out := make([]DurationIndicator, len(kb.doc.DurationIndicators))
	for i, d := range kb.doc.DurationIndicators {
		out[i] = DurationIndicator{Kind: d.Kind, Terms: append([]string(nil), d.Terms...)}
	}
	return out
}

// QuickPicks returns the fixed quick-pick labels
func (kb *KnowledgeBase) QuickPicks() []string {
	return append([]string(nil), kb.doc.QuickPicks...)
}

// Conditions returns the catalog in its fixed order
func (kb *KnowledgeBase) Conditions() []model.ConditionRecord {
	out := make([]model.ConditionRecord, len(kb.doc.Conditions))
	for i, c := range kb.doc.Conditions {
		rec := c.ConditionRecord
		rec.ReferenceSymptoms = append([]model.SymptomTag(nil), c.ReferenceSymptoms...)
		rec.Treatment = append([]string(nil), c.Treatment...)
		out[i] = rec
	}
	return out
}

// HasAgeRule reports whether the condition has an age adjustment
func (kb *KnowledgeBase) HasAgeRule(name string) bool {
	i, ok := kb.conditions[name]
	return ok && kb.doc.Conditions[i].Age != nil
}

// HasGenderRule reports whether the condition has a gender adjustment
func (kb *KnowledgeBase) HasGenderRule(name string) bool {
	i, ok := kb.conditions[name]
	return ok && len(kb.doc.Conditions[i].Gender) > 0
}

// AgeWeight returns the age adjustment of a condition.
// Unknown conditions, missing rules and a nil age all give DefaultWeight.
func (kb *KnowledgeBase) AgeWeight(name string, age *int) float64 {
	i, ok := kb.conditions[name]
	if !ok || age == nil {
		return DefaultWeight
	}
	rule := kb.doc.Conditions[i].Age
	if rule == nil {
		return DefaultWeight
	}
	for _, b := range rule.Bands {
		if b.contains(*age) {
			return b.Weight
		}
	}
	if rule.Otherwise != nil {
		return *rule.Otherwise
	}
	return DefaultWeight
}

// GenderWeight returns the gender adjustment of a condition, DefaultWeight if absent
func (kb *KnowledgeBase) GenderWeight(name string, g model.Gender) float64 {
	i, ok := kb.conditions[name]
	if !ok || g == model.GenderUnspecified {
		return DefaultWeight
	}
	if w, ok := kb.doc.Conditions[i].Gender[string(g)]; ok {
		return w
	}
	return DefaultWeight
}

func cloneEntries(in []TermEntry) []TermEntry {
	out := make([]TermEntry, len(in))
	for i, e := range in {
		out[i] = TermEntry{Tag: e.Tag, Terms: append([]string(nil), e.Terms...)}
	}
	return out
}
