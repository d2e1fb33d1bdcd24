package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonathan/resume-writer/internal/observability"
)

// maxResponseBody is the maximum response body size read from the API.
const maxResponseBody = 10 * 1024 * 1024

// OpenAIClient implements Client for any OpenAI-compatible chat completions API.
type OpenAIClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(config *Config, logger *slog.Logger) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	return &OpenAIClient{
		model:   config.GetModel(),
		apiKey:  config.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: config.GetTimeout()},
		logger:  logger,
	}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	ctx, span := observability.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			observability.StringAttr("llm.provider", c.Name()),
			observability.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	wireReq, err := toOpenAIRequest(req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	body, err := json.Marshal(wireReq)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	var wireResp openaiResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	result := fromOpenAIResponse(wireResp)
	if result.Usage != nil {
		span.SetAttributes(observability.IntAttr("llm.total_tokens", int(result.Usage.TotalTokens)))
	}
	observability.SetOK(span)
	c.logger.Debug("llm completion finished",
		"provider", c.Name(),
		"model", result.Model,
		"tool_calls", len(result.ToolCalls),
	)

	return result, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: c.Name(), StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

// Name implements Client.
func (c *OpenAIClient) Name() string { return string(ProviderOpenAI) }

// Close implements Client.
func (c *OpenAIClient) Close() error { return nil }

// --- wire types ---

type openaiRequest struct {
	Model      string          `json:"model"`
	Messages   []openaiMessage `json:"messages"`
	Tools      []openaiTool    `json:"tools"`
	ToolChoice string          `json:"tool_choice,omitempty"`
}

type openaiMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []openaiToolCall `json:"tool_calls,omitempty"`
}

type openaiTool struct {
	Type     string             `json:"type"`
	Function openaiToolFunction `json:"function"`
}

type openaiToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openaiToolCall struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Function openaiToolCallFunction `json:"function"`
}

type openaiToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   *openaiUsage   `json:"usage"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func toOpenAIRequest(req CompletionRequest) (openaiRequest, error) {
	msgs := make([]openaiMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openaiMessage{Role: string(m.Role), Content: m.Content})
	}

	tools := make([]openaiTool, 0, len(req.Tools))
	for _, t := range req.Tools {
		params, err := t.ParametersJSON()
		if err != nil {
			return openaiRequest{}, fmt.Errorf("marshal parameters for %s: %w", t.Name, err)
		}
		tools = append(tools, openaiTool{
			Type: "function",
			Function: openaiToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	choice := req.ToolChoice
	if choice == "" {
		choice = ToolChoiceAuto
	}

	return openaiRequest{
		Model:      req.Model,
		Messages:   msgs,
		Tools:      tools,
		ToolChoice: choice,
	}, nil
}

// fromOpenAIResponse reads tool calls from the first choice only; later choices are ignored.
func fromOpenAIResponse(resp openaiResponse) *CompletionResponse {
	result := &CompletionResponse{Model: resp.Model}
	if len(resp.Choices) > 0 {
		for _, tc := range resp.Choices[0].Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	if resp.Usage != nil {
		result.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result
}
