package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symptia/internal/cache"
	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/pipeline"
)

var extractFile string

var extractCmd = &cobra.Command{
	Use:   "extract [description...]",
	Short: "Show the symptom tags found in a description",
	Long: `Extract runs only the symptom extractor and prints the tags, the descriptive
context (severity, duration, body parts) and the extraction confidence.

Example:
  symptia extract "my chest hurts and I can't breathe"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := effectiveConfig(cmd, nil)
		if err != nil {
			return err
		}

		in, err := readDescription(args, extractFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		kb, err := knowledge.LoadOrDefault(cfg.Analysis.KnowledgeFile)
		if err != nil {
			return err
		}
		p, err := pipeline.New(cfg, kb, pipeline.WithCache(cache.Noop{}))
		if err != nil {
			return err
		}

		report, err := p.Extract(in)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"tags":                  report.Tags,
			"context":               report.Context,
			"extraction_confidence": report.ExtractionConfidence,
		}); err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "read the description from a file")
}
