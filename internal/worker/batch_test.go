package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/symptia/internal/intake"
	"github.com/ppiankov/symptia/internal/model"
)

// MockAnalyzer echoes the intake text into the report
type MockAnalyzer struct {
	failOn string
}

func (m *MockAnalyzer) Analyze(ctx context.Context, in model.Intake) (*model.Report, error) {
	time.Sleep(5 * time.Millisecond)
	if m.failOn != "" && strings.Contains(in.Text, m.failOn) {
		return nil, errors.New("analysis failed")
	}
	return &model.Report{Input: in.Text, Analyzed: true}, nil
}

func TestBatchProcessor_ProcessIntakes(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{failOn: "bad"}, 2, 0, 0)

	intakes := []model.Intake{{Text: "fever"}, {Text: "bad input"}, {Text: "cough"}}
	results := processor.ProcessIntakes(context.Background(), intakes)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Intake.Text != intakes[i].Text {
			t.Errorf("result %d out of order: %+v", i, r)
		}
	}
	if results[0].Report == nil || results[0].Report.Input != "fever" {
		t.Errorf("unexpected first report: %+v", results[0].Report)
	}
	if results[1].Error == nil {
		t.Error("expected second intake to fail")
	}

	ok, failed := Summary(results)
	if ok != 2 || failed != 1 {
		t.Errorf("expected 2/1, got %d/%d", ok, failed)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2, 0, 0)
	if results := processor.ProcessIntakes(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 1, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.ProcessIntakes(ctx, []model.Intake{{Text: "a"}, {Text: "b"}})
	if len(results) != 2 {
		t.Fatalf("expected a result per intake, got %d", len(results))
	}
	for _, r := range results {
		if r == nil {
			t.Fatal("expected no nil results")
		}
	}
}

func TestBatchProcessor_Paced(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 3, 20, 1)

	start := time.Now()
	results := processor.ProcessIntakes(context.Background(), []model.Intake{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	elapsed := time.Since(start)

	if ok, _ := Summary(results); ok != 3 {
		t.Errorf("expected 3 successes, got %d", ok)
	}
	// burst 1 at 20/s: the third start is at least ~100ms after the first
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected pacing, finished in %v", elapsed)
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intakes.txt")
	content := "# patients\nheadache and nausea\n\nfever and cough\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&MockAnalyzer{}, 2, 0, 0)
	results, err := processor.ProcessFile(context.Background(), intake.NewRegistry(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Report.Input != "fever and cough" {
		t.Errorf("unexpected second input: %q", results[1].Report.Input)
	}

	if _, err := processor.ProcessFile(context.Background(), intake.NewRegistry(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
