package model

import (
	"fmt"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	History     HistoryConfig     `yaml:"history" mapstructure:"history"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// Network modes for the perturbation layer of the scorer
const (
	NetworkRandom   = "random"
	NetworkConstant = "constant"
)

type AnalysisConfig struct {
	Delay         time.Duration `yaml:"delay" mapstructure:"delay"`                   // Simulated round trip before scoring
	Seed          uint64        `yaml:"seed" mapstructure:"seed"`                     // 0 = fresh random weights per process
	Network       string        `yaml:"network" mapstructure:"network"`               // random | constant
	NetworkValue  float64       `yaml:"network_value" mapstructure:"network_value"`   // Output of the constant network
	KnowledgeFile string        `yaml:"knowledge_file" mapstructure:"knowledge_file"` // Empty = embedded knowledge base
}

type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

type ServerConfig struct {
	Addr              string  `yaml:"addr" mapstructure:"addr"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per client, 0 disables
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	TrustProxy        bool    `yaml:"trust_proxy" mapstructure:"trust_proxy"` // Key clients on X-Forwarded-For/X-Real-IP
}

type HistoryConfig struct {
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"` // Empty = in-memory history
	Retention   time.Duration `yaml:"retention" mapstructure:"retention"`
}

type LLMConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" = disabled
	Model            string `yaml:"model" mapstructure:"model"`
	APIKey           string `yaml:"-" mapstructure:"api_key"`
	BaseURL          string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout          int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictConditions bool   `yaml:"strict_conditions" mapstructure:"strict_conditions"`
	HTTPProxy        string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy       string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	LogFormat     string `yaml:"log_format" mapstructure:"log_format"` // text | json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Delay:        2 * time.Second,
			Network:      NetworkRandom,
			NetworkValue: 0.5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".symptia-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerSecond: 5,
			Burst:             10,
		},
		History: HistoryConfig{
			Retention: 24 * time.Hour,
		},
		LLM: LLMConfig{
			Timeout:          30,
			MaxTokens:        600,
			StrictConditions: true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			LogFormat:     "text",
		},
	}
}

// Validate checks the values that would otherwise fail late
func (c *Config) Validate() error {
	if c.Analysis.Delay < 0 {
		return fmt.Errorf("analysis.delay must not be negative")
	}
	switch c.Analysis.Network {
	case NetworkRandom, NetworkConstant:
	default:
		return fmt.Errorf("analysis.network: unknown mode %q (supported: random, constant)", c.Analysis.Network)
	}
	if c.Analysis.NetworkValue < 0 || c.Analysis.NetworkValue > 1 {
		return fmt.Errorf("analysis.network_value must be within [0,1]")
	}
	if c.Cache.MemoryTTL < 0 || c.Cache.DiskTTL < 0 || c.History.Retention < 0 {
		return fmt.Errorf("TTL values must not be negative")
	}
	if c.Server.RequestsPerSecond < 0 {
		return fmt.Errorf("server.requests_per_second must not be negative")
	}
	switch c.Output.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("output.log_format: unknown format %q (supported: text, json)", c.Output.LogFormat)
	}
	return nil
}
