package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/symptia/internal/history"
	"github.com/ppiankov/symptia/internal/intake"
	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
	"github.com/ppiankov/symptia/internal/pipeline"
)

// analysisFlags are shared by analyze, batch and serve
type analysisFlags struct {
	delay       time.Duration
	seed        uint64
	network     string
	value       float64
	knowledge   string
	noCache     bool
	noFooter    bool
	llmProvider string
	llmModel    string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "simulated analysis delay (default from config: 2s)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for the scoring network (0 = random per process)")
	cmd.Flags().StringVar(&f.network, "network", "", "scoring network: random or constant")
	cmd.Flags().Float64Var(&f.value, "network-value", 0, "output of the constant network, within [0,1]")
	cmd.Flags().StringVar(&f.knowledge, "knowledge", "", "knowledge base YAML file (default: embedded)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&f.noFooter, "no-footer", false, "omit the disclaimer footer")
	cmd.Flags().StringVar(&f.llmProvider, "llm", "", "add an LLM explanation (openai, ollama)")
	cmd.Flags().StringVar(&f.llmModel, "llm-model", "", "LLM model name")
}

// apply overrides cfg with the flags the user actually set
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("delay") {
		cfg.Analysis.Delay = f.delay
	}
	if flags.Changed("seed") {
		cfg.Analysis.Seed = f.seed
	}
	if flags.Changed("network") {
		cfg.Analysis.Network = f.network
	}
	if flags.Changed("network-value") {
		cfg.Analysis.NetworkValue = f.value
	}
	if flags.Changed("knowledge") {
		cfg.Analysis.KnowledgeFile = f.knowledge
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.noFooter {
		cfg.Output.IncludeFooter = false
	}
	if f.llmProvider != "" {
		cfg.LLM.Provider = f.llmProvider
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if f.llmModel != "" {
		cfg.LLM.Model = f.llmModel
	}
}

// effectiveConfig loads the config and applies command flags
func effectiveConfig(cmd *cobra.Command, flags *analysisFlags) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if flags != nil {
		flags.apply(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}
	return cfg, nil
}

// buildPipeline wires the knowledge base and history into a pipeline.
// withHistory opens the in-memory store even when no database is configured.
func buildPipeline(ctx context.Context, cfg *model.Config, withHistory bool, extra ...pipeline.Option) (*pipeline.Pipeline, func() error, error) {
	kb, err := knowledge.LoadOrDefault(cfg.Analysis.KnowledgeFile)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() error { return nil }
	var opts []pipeline.Option
	if withHistory || cfg.History.DatabaseURL != "" {
		repo, closeRepo, err := history.Open(ctx, cfg.History)
		if err != nil {
			return nil, nil, err
		}
		closeFn = closeRepo
		opts = append(opts, pipeline.WithHistory(repo))
	}

	p, err := pipeline.New(cfg, kb, append(opts, extra...)...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}

// readDescription returns the symptom text from args, a file, or stdin ("-")
func readDescription(args []string, file string, stdin io.Reader) (model.Intake, error) {
	switch {
	case file != "":
		intakes, err := intake.NewRegistry().ReadFile(file)
		if err != nil {
			return model.Intake{}, err
		}
		switch len(intakes) {
		case 0:
			return model.Intake{}, nil
		case 1:
			return intakes[0], nil
		default:
			return model.Intake{}, fmt.Errorf("%s holds %d intakes; use 'symptia batch %s' to analyze them all", file, len(intakes), file)
		}
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return model.Intake{}, fmt.Errorf("read stdin: %w", err)
		}
		return model.Intake{Text: string(data)}, nil
	default:
		return model.Intake{Text: strings.Join(args, " ")}, nil
	}
}
