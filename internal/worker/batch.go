package worker

import (
	"context"
	"fmt"

	"github.com/ppiankov/symptia/internal/intake"
	"github.com/ppiankov/symptia/internal/model"
)

// Analyzer runs one analysis
type Analyzer interface {
	Analyze(ctx context.Context, in model.Intake) (*model.Report, error)
}

const batchKey = "batch"

// AnalysisJob analyzes one intake
type AnalysisJob struct {
	Index    int
	Intake   model.Intake
	Analyzer Analyzer
	Limiter  *Limiter
}

func (j *AnalysisJob) Execute(ctx context.Context) *BatchResult {
	result := &BatchResult{Index: j.Index, Intake: j.Intake}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, batchKey); err != nil {
			result.Error = err
			return result
		}
	}

	result.Report, result.Error = j.Analyzer.Analyze(ctx, j.Intake)
	return result
}

// BatchResult is the outcome for one intake
type BatchResult struct {
	Index  int
	Intake model.Intake
	Report *model.Report
	Error  error
}

// BatchProcessor analyzes many intakes concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a processor. ratePerSecond <= 0 runs unpaced.
func NewBatchProcessor(analyzer Analyzer, concurrency int, ratePerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if ratePerSecond > 0 {
		limiter = NewLimiter(ratePerSecond, burst)
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessIntakes analyzes intakes and returns one result per intake, in
// input order
func (b *BatchProcessor) ProcessIntakes(ctx context.Context, intakes []model.Intake) []*BatchResult {
	if len(intakes) == 0 {
		return []*BatchResult{}
	}

	jobs := make([]Job[*BatchResult], len(intakes))
	for i, in := range intakes {
		jobs[i] = &AnalysisJob{Index: i, Intake: in, Analyzer: b.analyzer, Limiter: b.limiter}
	}

	results := Run(ctx, b.concurrency, jobs)

	// jobs skipped by cancellation come back nil
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("intake %d was not processed", i)
			}
			results[i] = &BatchResult{Index: i, Intake: intakes[i], Error: err}
		}
	}
	return results
}

// ProcessFile reads intakes with the registry and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, registry *intake.Registry, path string) ([]*BatchResult, error) {
	intakes, err := registry.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intakes: %w", err)
	}
	return b.ProcessIntakes(ctx, intakes), nil
}

// Summary counts successes and failures
func Summary(results []*BatchResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Error != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
