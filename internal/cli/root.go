// Package cli implements the symptia command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/symptia/internal/logging"
	"github.com/ppiankov/symptia/internal/model"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=..."
var version = "v0.1.0-dev"

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "symptia",
	Short: "Symptia - symptom-to-condition matching (non-diagnostic)",
	Long: `Symptia matches a free-text symptom description against a small catalog of
conditions and returns the closest matches, an urgency tier and generic advice.

It does not diagnose anything. Confidence values are heuristic keyword-match
scores capped at 95%, not calibrated probabilities.

In an emergency, call your local emergency number.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format := viper.GetString("output.log_format")
		return logging.Setup(format, verbose || viper.GetBool("output.verbose"))
	},
}

// Execute runs the root command; ctx is cancelled on interrupt by the caller
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("symptia %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.symptia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and SYMPTIA_* variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".symptia"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// SYMPTIA_ANALYSIS_DELAY overrides analysis.delay
	viper.SetEnvPrefix("SYMPTIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env variables are picked up for keys
// the config file does not mention
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("analysis.delay", cfg.Analysis.Delay)
	v.SetDefault("analysis.seed", cfg.Analysis.Seed)
	v.SetDefault("analysis.network", cfg.Analysis.Network)
	v.SetDefault("analysis.network_value", cfg.Analysis.NetworkValue)
	v.SetDefault("analysis.knowledge_file", cfg.Analysis.KnowledgeFile)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.requests_per_second", cfg.Server.RequestsPerSecond)
	v.SetDefault("server.burst", cfg.Server.Burst)
	v.SetDefault("server.trust_proxy", cfg.Server.TrustProxy)

	v.SetDefault("history.database_url", cfg.History.DatabaseURL)
	v.SetDefault("history.retention", cfg.History.Retention)

	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.strict_conditions", cfg.LLM.StrictConditions)
	v.SetDefault("llm.http_proxy", cfg.LLM.HTTPProxy)
	v.SetDefault("llm.https_proxy", cfg.LLM.HTTPSProxy)

	v.SetDefault("output.verbose", cfg.Output.Verbose)
	v.SetDefault("output.include_footer", cfg.Output.IncludeFooter)
	v.SetDefault("output.log_format", cfg.Output.LogFormat)
}

// loadConfig decodes the effective configuration from viper
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider keys keep their conventional names
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
