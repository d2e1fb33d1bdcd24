package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/resume-writer/internal/schemas"
	"github.com/jonathan/resume-writer/internal/types"
)

// ToolChoiceAuto lets the model choose among the offered tools.
const ToolChoiceAuto = "auto"

// ErrNoTools is returned when a completion is requested without any tool.
var ErrNoTools = errors.New("completion request must offer at least one tool")

// Client is an abstraction over chat-completion providers
type Client interface {
	// Complete issues one blocking chat completion
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name identifies the provider in logs and traces
	Name() string
	// Close releases any resources held by the client
	Close() error
}

// CompletionRequest is a single chat completion with tool calling.
type CompletionRequest struct {
	Model      string
	Messages   []types.Message
	Tools      []schemas.ToolSchema
	ToolChoice string
}

// Validate checks the request can be sent.
func (r CompletionRequest) Validate() error {
	if len(r.Tools) == 0 {
		return ErrNoTools
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("completion request has no messages")
	}
	return nil
}

// ToolCall is one function invocation returned by the model. Arguments is the raw JSON text.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Usage is the provider-reported token usage.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// CompletionResponse holds the tool calls of a completion in provider order.
// Usage is nil when the provider did not report it.
type CompletionResponse struct {
	Model     string
	ToolCalls []ToolCall
	Usage     *Usage
}

// NewClient creates a completion client for the configured provider, guarded by a circuit breaker.
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var inner Client
	switch config.Provider {
	case ProviderGemini:
		gemini, err := NewGeminiClient(ctx, config, logger)
		if err != nil {
			return nil, err
		}
		inner = gemini
	case ProviderOpenAI, "":
		openai, err := NewOpenAIClient(config, logger)
		if err != nil {
			return nil, err
		}
		inner = openai
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", config.Provider)
	}

	return NewCircuitBreakerClient(inner, config.Breaker, logger), nil
}
