package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"github.com/jonathan/resume-writer/internal/observability"
	"github.com/jonathan/resume-writer/internal/schemas"
	"github.com/jonathan/resume-writer/internal/types"
)

// GeminiClient implements Client for Google Gemini using function declarations
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, logger *slog.Logger) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  config.GetModel(),
		logger: logger,
	}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = c.model
	}

	ctx, span := observability.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			observability.StringAttr("llm.provider", c.Name()),
			observability.StringAttr("llm.model", modelName),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	model := c.client.GenerativeModel(modelName)
	model.Tools = toGeminiTools(req.Tools)
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
	}

	system, parts := splitMessages(req.Messages)
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		err = fmt.Errorf("failed to generate content: %w", err)
		observability.RecordError(span, err)
		return nil, err
	}

	result, err := fromGeminiResponse(resp, modelName)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if result.Usage != nil {
		span.SetAttributes(observability.IntAttr("llm.total_tokens", int(result.Usage.TotalTokens)))
	}
	observability.SetOK(span)
	c.logger.Debug("llm completion finished",
		"provider", c.Name(),
		"model", modelName,
		"tool_calls", len(result.ToolCalls),
	)

	return result, nil
}

// Name implements Client.
func (c *GeminiClient) Name() string { return string(ProviderGemini) }

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitMessages separates system instructions from conversation parts.
func splitMessages(msgs []types.Message) (system []genai.Part, parts []genai.Part) {
	for _, m := range msgs {
		if m.Role == types.RoleSystem {
			system = append(system, genai.Text(m.Content))
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	return system, parts
}

func toGeminiTools(tools []schemas.ToolSchema) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Parameters.Properties))
		for name, p := range t.Parameters.Properties {
			props[name] = toGeminiSchema(p)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   t.Parameters.Required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toGeminiSchema(p schemas.PropertySchema) *genai.Schema {
	s := &genai.Schema{Type: geminiType(p.Type)}
	if p.Items != nil {
		s.Items = toGeminiSchema(*p.Items)
	}
	return s
}

func geminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

// fromGeminiResponse collects function calls from every candidate in order.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelName string) (*CompletionResponse, error) {
	result := &CompletionResponse{Model: modelName}
	if resp == nil {
		return result, nil
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			var call genai.FunctionCall
			switch p := part.(type) {
			case genai.FunctionCall:
				call = p
			case *genai.FunctionCall:
				call = *p
			default:
				continue
			}
			args, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("marshal function call args: %w", err)
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{Name: call.Name, Arguments: string(args)})
		}
	}

	if resp.UsageMetadata != nil {
		result.Usage = &Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}
