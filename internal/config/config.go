// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-writer/internal/llm"
)

// Defaults applied after file and environment values.
const (
	DefaultPort        = "8000"
	DefaultFrontendURL = "http://localhost:3000"
	DefaultStreamDelay = "20ms"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Config represents the service configuration. It can be loaded from a JSON file;
// environment values take precedence and defaults fill whatever is left.
type Config struct {
	// Server
	Port        string `json:"port,omitempty"`         // HTTP listen port
	FrontendURL string `json:"frontend_url,omitempty"` // Allowed CORS origin

	// Completion provider
	LLMProvider  string `json:"llm_provider,omitempty"`   // openai or gemini
	LLMModel     string `json:"llm_model,omitempty"`      // Model override
	LLMBaseURL   string `json:"llm_base_url,omitempty"`   // OpenAI-compatible base URL
	OpenAIAPIKey string `json:"openai_api_key,omitempty"` // Credential when provider is openai
	GeminiAPIKey string `json:"gemini_api_key,omitempty"` // Credential when provider is gemini

	// Streaming
	StreamDelay string `json:"stream_delay,omitempty"` // Pause between streamed units, e.g. "20ms"

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL URL for the usage journal (optional)

	// Observability
	LogLevel        string `json:"log_level,omitempty"`
	LogFormat       string `json:"log_format,omitempty"`
	TracingExporter string `json:"tracing_exporter,omitempty"` // "", noop or stdout
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads every configuration value present in the environment.
func FromEnv() Config {
	return Config{
		Port:            os.Getenv("PORT"),
		FrontendURL:     os.Getenv("FRONTEND_URL"),
		LLMProvider:     os.Getenv("LLM_PROVIDER"),
		LLMModel:        os.Getenv("LLM_MODEL"),
		LLMBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		StreamDelay:     os.Getenv("STREAM_DELAY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		LogFormat:       os.Getenv("LOG_FORMAT"),
		TracingExporter: os.Getenv("TRACING_EXPORTER"),
	}
}

// Defaults returns the built-in defaults. The model default depends on the provider.
func Defaults(provider string) Config {
	p, err := llm.ParseProvider(provider)
	if err != nil {
		p = llm.ProviderOpenAI
	}
	return Config{
		Port:        DefaultPort,
		FrontendURL: DefaultFrontendURL,
		LLMProvider: string(p),
		LLMModel:    llm.DefaultModel(p),
		StreamDelay: DefaultStreamDelay,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// Load resolves the effective configuration: environment, then the optional file, then defaults.
func Load(path string) (*Config, error) {
	file := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	env := FromEnv()
	merged := env.MergeWithDefaults(*file)
	merged = merged.MergeWithDefaults(Defaults(merged.LLMProvider))
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	provider, err := llm.ParseProvider(c.LLMProvider)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.APIKey() == "" {
		if provider == llm.ProviderGemini {
			return fmt.Errorf("config error: GEMINI_API_KEY is required for provider gemini")
		}
		return fmt.Errorf("config error: OPENAI_API_KEY is required for provider openai")
	}

	if _, err := c.StreamDelayDuration(); err != nil {
		return err
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.Port, defaults.Port)
	fill(&result.FrontendURL, defaults.FrontendURL)
	fill(&result.LLMProvider, defaults.LLMProvider)
	fill(&result.LLMModel, defaults.LLMModel)
	fill(&result.LLMBaseURL, defaults.LLMBaseURL)
	fill(&result.OpenAIAPIKey, defaults.OpenAIAPIKey)
	fill(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	fill(&result.StreamDelay, defaults.StreamDelay)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.LogLevel, defaults.LogLevel)
	fill(&result.LogFormat, defaults.LogFormat)
	fill(&result.TracingExporter, defaults.TracingExporter)

	return result
}

// Provider returns the parsed provider, OpenAI when unset or unknown.
func (c *Config) Provider() llm.Provider {
	p, err := llm.ParseProvider(c.LLMProvider)
	if err != nil {
		return llm.ProviderOpenAI
	}
	return p
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider() == llm.ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// StreamDelayDuration parses StreamDelay. Empty means the default.
func (c *Config) StreamDelayDuration() (time.Duration, error) {
	raw := strings.TrimSpace(c.StreamDelay)
	if raw == "" {
		raw = DefaultStreamDelay
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid stream_delay %q: %w", c.StreamDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config error: 'stream_delay' must be non-negative")
	}
	return d, nil
}

// LLMConfig converts the configuration into a completion client config.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = c.Provider()
	cfg.Model = c.LLMModel
	cfg.APIKey = c.APIKey()
	if cfg.Provider == llm.ProviderOpenAI {
		cfg.BaseURL = c.LLMBaseURL
	}
	return cfg
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	port := c.Port
	if port == "" {
		port = DefaultPort
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
