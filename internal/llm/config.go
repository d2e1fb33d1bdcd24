// Package llm provides the chat-completion client abstraction and its provider implementations.
package llm

import (
	"fmt"
	"strings"
	"time"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenAI is any OpenAI-compatible chat completions API
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// DefaultOpenAIBaseURL is used by the OpenAI client when no base URL is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

const defaultTimeout = 60 * time.Second

// Config holds the completion client configuration
type Config struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string
	// Timeout bounds a single completion call. Zero means the default.
	Timeout time.Duration
	Breaker CircuitBreakerConfig
}

// DefaultConfig returns the default configuration (OpenAI)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Model:    DefaultOpenAIModel,
		Timeout:  defaultTimeout,
	}
}

// ParseProvider converts a provider name, case-insensitively. Empty means OpenAI.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unsupported LLM provider: %q", s)
	}
}

// DefaultModel returns the model used for a provider when none is configured
func DefaultModel(p Provider) string {
	if p == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// GetModel returns the configured model, falling back to the provider default
func (c *Config) GetModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

// GetTimeout returns the configured timeout or the default
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// WithModel returns a copy of the config using model
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	newConfig.Model = model
	return &newConfig
}
