// Demo program: runs canned symptom descriptions through the pipeline with
// the constant network so the output is the same on every run.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/symptia/internal/cache"
	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
	"github.com/ppiankov/symptia/internal/pipeline"
)

type scenario struct {
	name   string
	intake model.Intake
}

var scenarios = []scenario{
	{
		name:   "Headache with nausea",
		intake: model.Intake{Text: "I have a severe headache and nausea for 3 days", Age: "30", Gender: "female"},
	},
	{
		name:   "Flu-like illness",
		intake: model.Intake{Text: "Fever, chills and body aches. I'm exhausted and coughing.", Age: "70"},
	},
	{
		name:   "Chest pain quick pick",
		intake: model.Intake{Selected: []string{"Chest Pain", "Dizziness"}, Age: "55", Gender: "male"},
	},
	{
		name:   "Stomach bug",
		intake: model.Intake{Text: "Throwing up since last night, loose stools and my stomach hurts"},
	},
	{
		name:   "Thirst and urination",
		intake: model.Intake{Text: "I'm always thirsty, peeing a lot and I have fuzzy vision lately", Age: "52"},
	},
	{
		name:   "Nothing entered",
		intake: model.Intake{},
	},
}

func main() {
	fmt.Println("=== Symptia Scenarios (constant network) ===")
	fmt.Println()

	cfg := model.DefaultConfig()
	cfg.Analysis.Delay = 0
	cfg.Analysis.Network = model.NetworkConstant
	cfg.Analysis.NetworkValue = 0.5

	p, err := pipeline.New(cfg, knowledge.Default(), pipeline.WithCache(cache.Noop{}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, s := range scenarios {
		fmt.Printf("Scenario: %s\n", s.name)
		fmt.Println(strings.Repeat("-", 60))

		report, err := p.Analyze(context.Background(), s.intake)
		if err != nil {
			fmt.Printf("  Error: %v\n\n", err)
			continue
		}

		if !report.Analyzed {
			fmt.Println("  No symptoms provided; analysis skipped")
		} else {
			fmt.Printf("  Tags: %v\n", report.Tags)
			for _, m := range report.Result.PossibleConditions {
				fmt.Printf("  %3d%%  %s (%s)\n", m.Confidence, m.Name, m.Severity)
			}
			if len(report.Result.PossibleConditions) == 0 {
				fmt.Println("  No clear match")
			}
		}

		fmt.Printf("  Urgency: %s", strings.ToUpper(string(report.Result.Urgency)))
		if report.UrgencyReason != "" {
			fmt.Printf(" (%s)", report.UrgencyReason)
		}
		fmt.Println()
		for _, rec := range report.Result.Recommendations {
			fmt.Printf("    - %s\n", rec)
		}
		fmt.Println()
	}

	fmt.Println("Note: these are keyword matches, not diagnoses.")
}
