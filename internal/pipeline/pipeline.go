// Package pipeline runs the symptom analysis end to end: extraction,
// scoring, triage and the optional cache, history and explanation steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/symptia/internal/cache"
	"github.com/ppiankov/symptia/internal/extract"
	"github.com/ppiankov/symptia/internal/history"
	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/llm"
	"github.com/ppiankov/symptia/internal/logging"
	"github.com/ppiankov/symptia/internal/model"
	"github.com/ppiankov/symptia/internal/score"
	"github.com/ppiankov/symptia/internal/triage"
)

// ErrUnknownQuickPick is returned for a selection outside the quick-pick list
var ErrUnknownQuickPick = errors.New("unknown quick pick")

// Pipeline orchestrates one analysis
type Pipeline struct {
	kb         *knowledge.KnowledgeBase
	extractor  *extract.SymptomExtractor
	scorer     *score.Scorer
	classifier *triage.Classifier
	cache      cache.Cache
	history    history.Repository // nil when history is off
	explainer  *llm.Explainer     // nil when explanations are off
	pacer      Pacer              // nil when explanations are unpaced
	cooldown   time.Duration
	config     *model.Config
	catalog    []string
	now        func() time.Time
}

// Option customizes a pipeline
type Option func(*Pipeline)

// WithNetwork replaces the network chosen by the config
func WithNetwork(n score.Network) Option {
	return func(p *Pipeline) { p.scorer = score.NewScorer(p.kb, n) }
}

// WithCache replaces the cache built from the config
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithHistory stores every analyzed report in repo
func WithHistory(repo history.Repository) Option {
	return func(p *Pipeline) { p.history = repo }
}

// WithExplainer attaches an LLM explainer
func WithExplainer(e *llm.Explainer) Option {
	return func(p *Pipeline) { p.explainer = e }
}

// Pacer holds a caller until key may proceed, then sleeps for delay
type Pacer interface {
	WaitWithDelay(ctx context.Context, key string, delay time.Duration) error
}

// WithExplainPacer paces LLM explanations per provider name. cooldown is
// added after every clearance.
func WithExplainPacer(pacer Pacer, cooldown time.Duration) Option {
	return func(p *Pipeline) {
		p.pacer = pacer
		p.cooldown = cooldown
	}
}

// WithClock sets the time source for report timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline from the configuration
func New(cfg *model.Config, kb *knowledge.KnowledgeBase, opts ...Option) (*Pipeline, error) {
	network, err := score.NetworkFromConfig(kb, cfg.Analysis)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		kb:         kb,
		extractor:  extract.NewSymptomExtractor(kb),
		scorer:     score.NewScorer(kb, network),
		classifier: triage.NewClassifier(kb),
		config:     cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, c := range kb.Conditions() {
		p.catalog = append(p.catalog, c.Name)
	}

	if cfg.LLM.Provider != "" {
		explainer, err := llm.NewExplainer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			slog.Warn("failed to initialize LLM provider", "provider", cfg.LLM.Provider, "error", err)
		} else {
			p.explainer = explainer
		}
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		p.cache = cache.New(cfg.Cache, reproducible(cfg.Analysis))
	}

	return p, nil
}

// reproducible reports whether the network gives the same scores in every
// process, which is what a disk cache needs
func reproducible(cfg model.AnalysisConfig) bool {
	return cfg.Network == model.NetworkConstant || cfg.Seed != 0
}

// KnowledgeBase returns the tables the pipeline runs on
func (p *Pipeline) KnowledgeBase() *knowledge.KnowledgeBase {
	return p.kb
}

// Extractor returns the symptom extractor
func (p *Pipeline) Extractor() *extract.SymptomExtractor {
	return p.extractor
}

// History returns the configured repository, or nil
func (p *Pipeline) History() history.Repository {
	return p.history
}

// cachedAnalysis is what the cache stores per key
type cachedAnalysis struct {
	Result        model.AnalysisResult `json:"result"`
	UrgencyReason string               `json:"urgency_reason"`
}

// Analyze runs one analysis. Errors come only from unknown quick picks
// and from ctx ending during the delay; cache, history and explanation
// failures are logged and skipped.
func (p *Pipeline) Analyze(ctx context.Context, in model.Intake) (*model.Report, error) {
	picks, err := p.quickPickTags(in.Selected)
	if err != nil {
		return nil, err
	}

	attrs := in.Attributes()
	report := &model.Report{
		ID:         uuid.New(),
		CreatedAt:  p.now(),
		Input:      in.Text,
		Patient:    attrs,
		Tags:       []model.SymptomTag{},
		Disclaimer: model.Disclaimer,
	}
	ctx = logging.WithFields(ctx, logging.Fields{AnalysisID: report.ID.String(), Component: "pipeline"})

	if in.IsEmpty() {
		report.Result = emptyResult(attrs)
		slog.DebugContext(ctx, "empty input, analysis skipped")
		return report, nil
	}

	tags := extract.MergeTags(p.extractor.Extract(in.Text), picks...)
	report.Tags = tags
	report.Context = p.extractor.ExtractWithContext(in.Text)
	report.ExtractionConfidence = p.extractor.ExtractionConfidence(in.Text, tags)

	key := p.cacheKey(tags, attrs)
	var analysis cachedAnalysis
	if cache.GetJSON(p.cache, key, &analysis) {
		slog.DebugContext(ctx, "cache hit", "tags", len(tags))
	} else {
		if err := p.wait(ctx); err != nil {
			return nil, fmt.Errorf("analysis interrupted: %w", err)
		}
		analysis = p.evaluate(tags, attrs)
		if err := cache.SetJSON(p.cache, key, analysis, 0); err != nil {
			slog.WarnContext(ctx, "cache write failed", "error", err)
		}
	}

	report.Analyzed = true
	report.Result = analysis.Result
	report.UrgencyReason = analysis.UrgencyReason

	// explanation runs after scoring and never changes the result
	if p.explainer.IsEnabled() {
		p.explain(ctx, report)
	}

	if p.history != nil {
		if err := p.history.Save(ctx, report); err != nil {
			slog.WarnContext(ctx, "history save failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "analysis finished",
		"tags", len(tags),
		"conditions", len(report.Result.PossibleConditions),
		"urgency", report.Result.Urgency)

	return report, nil
}

// explain attaches the LLM summary. A pacer that cannot clear before ctx
// ends skips the explanation.
func (p *Pipeline) explain(ctx context.Context, report *model.Report) {
	if p.pacer != nil {
		if err := p.pacer.WaitWithDelay(ctx, p.explainer.ProviderName(), p.cooldown); err != nil {
			slog.WarnContext(ctx, "LLM explanation skipped", "error", err)
			return
		}
	}

	summary, err := p.explainer.Explain(ctx, *report, p.catalog)
	if err != nil {
		slog.WarnContext(ctx, "LLM explanation failed", "error", err)
		return
	}
	if summary != nil {
		report.LLM = summary
	}
}

// Extract runs only the extraction stage
func (p *Pipeline) Extract(in model.Intake) (*model.Report, error) {
	picks, err := p.quickPickTags(in.Selected)
	if err != nil {
		return nil, err
	}

	tags := extract.MergeTags(p.extractor.Extract(in.Text), picks...)
	return &model.Report{
		Input:                in.Text,
		Patient:              in.Attributes(),
		Tags:                 tags,
		Context:              p.extractor.ExtractWithContext(in.Text),
		ExtractionConfidence: p.extractor.ExtractionConfidence(in.Text, tags),
	}, nil
}

// evaluate is the pure scoring part: Scorer, Classifier, Generator
func (p *Pipeline) evaluate(tags []model.SymptomTag, attrs model.PatientAttributes) cachedAnalysis {
	matches := p.scorer.Score(tags, attrs)
	decision := p.classifier.Decide(matches, tags)

	result := model.AnalysisResult{
		PossibleConditions: matches,
		Recommendations:    triage.Generate(matches, decision.Urgency, attrs),
		Urgency:            decision.Urgency,
	}
	if top, ok := result.TopMatch(); ok {
		result.Confidence = top.Confidence
	}

	reason := string(decision.Rule)
	if decision.Trigger != "" {
		reason += ": " + decision.Trigger
	}
	return cachedAnalysis{Result: result, UrgencyReason: reason}
}

func emptyResult(attrs model.PatientAttributes) model.AnalysisResult {
	return model.AnalysisResult{
		PossibleConditions: []model.ConditionMatch{},
		Recommendations:    triage.Generate(nil, model.UrgencyLow, attrs),
		Urgency:            model.UrgencyLow,
		Confidence:         0,
	}
}

// quickPickTags validates selections against the quick-pick list and
// normalizes them to tags
func (p *Pipeline) quickPickTags(selected []string) ([]model.SymptomTag, error) {
	if len(selected) == 0 {
		return nil, nil
	}

	allowed := make(map[string]bool)
	for _, label := range p.kb.QuickPicks() {
		allowed[strings.ToLower(label)] = true
	}

	tags := make([]model.SymptomTag, 0, len(selected))
	for _, s := range selected {
		if !allowed[strings.ToLower(strings.TrimSpace(s))] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuickPick, s)
		}
		tags = append(tags, p.extractor.NormalizeSymptom(s))
	}
	return tags, nil
}

// wait is the simulated round trip; it ends early if ctx does
func (p *Pipeline) wait(ctx context.Context) error {
	delay := p.config.Analysis.Delay
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) cacheKey(tags []model.SymptomTag, attrs model.PatientAttributes) string {
	parts := make([]string, 0, len(tags)+4)
	parts = append(parts, p.scorer.Network().Fingerprint(), p.kb.Fingerprint())

	age := ""
	if attrs.Age != nil {
		age = strconv.Itoa(*attrs.Age)
	}
	parts = append(parts, age, string(attrs.Gender))

	for _, t := range tags {
		parts = append(parts, string(t))
	}
	return cache.CacheKey(parts...)
}
