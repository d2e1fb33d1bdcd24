// Package dispatch runs one tool-constrained completion for a section prompt and extracts
// the structured description from the matching tool call.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonathan/resume-writer/internal/llm"
	"github.com/jonathan/resume-writer/internal/observability"
	"github.com/jonathan/resume-writer/internal/schemas"
	"github.com/jonathan/resume-writer/internal/sections"
	"github.com/jonathan/resume-writer/internal/types"
	"github.com/jonathan/resume-writer/internal/usage"
)

// Options configures a Dispatcher.
type Options struct {
	// Model overrides the client's default model when set.
	Model string
	// Journal receives one entry per completion that reported usage.
	Journal usage.Journal
	Logger  *slog.Logger
}

// Dispatcher issues completions and tallies their token usage.
type Dispatcher struct {
	client  llm.Client
	counter *usage.Counter
	journal usage.Journal
	model   string
	logger  *slog.Logger
}

// Request is one section generation.
type Request struct {
	Bundle sections.PromptBundle
	// Stream is informational: the completion call is always blocking.
	Stream bool
	UserID string
}

// New creates a Dispatcher. counter must be shared by every request of the process.
func New(client llm.Client, counter *usage.Counter, opts Options) *Dispatcher {
	journal := opts.Journal
	if journal == nil {
		journal = usage.NopJournal{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if counter == nil {
		counter = usage.NewCounter()
	}
	return &Dispatcher{
		client:  client,
		counter: counter,
		journal: journal,
		model:   opts.Model,
		logger:  logger,
	}
}

// Dispatch performs the completion and returns the description typed by the bundle's shape.
// Every failure is a *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (types.Description, error) {
	bundle := req.Bundle
	ctx, span := observability.StartSpan(ctx, "dispatch",
		trace.WithAttributes(
			observability.StringAttr("section.kind", string(bundle.Kind)),
			observability.StringAttr("tool.name", bundle.ToolName),
			observability.BoolAttr("stream", req.Stream),
		),
	)
	defer span.End()

	desc, err := d.dispatch(ctx, req)
	if err != nil {
		de := AsDispatchError(err)
		observability.RecordError(span, de)
		level := slog.LevelError
		if de.IsContractViolation() {
			level = slog.LevelWarn
		}
		d.logger.Log(ctx, level, "completion failed",
			"tool", bundle.ToolName,
			"stream", req.Stream,
			"kind", string(de.Kind),
			"error", de.Error(),
		)
		return types.Description{}, de
	}

	observability.SetOK(span)
	return desc, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (types.Description, error) {
	bundle := req.Bundle
	tools := bundle.Tools()
	messages := bundle.Messages()

	resp, err := d.client.Complete(ctx, llm.CompletionRequest{
		Model:      d.model,
		Messages:   messages,
		Tools:      tools,
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return types.Description{}, &DispatchError{Kind: KindUpstream, Err: err}
	}

	d.account(ctx, req, resp, messages)

	if len(resp.ToolCalls) == 0 {
		return types.Description{}, &DispatchError{Kind: KindNoToolCall}
	}

	call, ok := findToolCall(resp.ToolCalls, bundle.ToolName)
	if !ok {
		got := make([]string, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			got = append(got, tc.Name)
		}
		return types.Description{}, &DispatchError{Kind: KindNameMismatch, Got: got}
	}

	return extractDescription(tools[0], call.Arguments)
}

// account adds reported usage to the counter before the result is inspected.
func (d *Dispatcher) account(ctx context.Context, req Request, resp *llm.CompletionResponse, messages []types.Message) {
	var tokens any = "n/a"
	if resp.Usage != nil {
		d.counter.Add(resp.Usage.TotalTokens)
		entry := usage.NewEntry(req.UserID, string(req.Bundle.Kind), req.Bundle.ToolName, resp.Usage.TotalTokens, req.Stream)
		if err := d.journal.Record(ctx, entry); err != nil {
			d.logger.Warn("failed to record usage", "error", err)
		}
		tokens = resp.Usage.TotalTokens
	}

	d.logger.Info("completion",
		"tool", req.Bundle.ToolName,
		"stream", req.Stream,
		"total_tokens", tokens,
	)
	if d.logger.Enabled(ctx, slog.LevelDebug) {
		if raw, err := json.MarshalIndent(messages, "", "  "); err == nil {
			d.logger.Debug("completion request", "tool", req.Bundle.ToolName, "messages", string(raw))
		}
	}
}

func findToolCall(calls []llm.ToolCall, name string) (llm.ToolCall, bool) {
	for _, tc := range calls {
		if tc.Name == name {
			return tc, true
		}
	}
	return llm.ToolCall{}, false
}

// extractDescription parses arguments and decodes description according to the schema's shape.
func extractDescription(schema schemas.ToolSchema, arguments string) (types.Description, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arguments), &payload); err != nil {
		return types.Description{}, &DispatchError{Kind: KindInvalidJSON, Err: err}
	}

	raw, ok := payload[schemas.DescriptionParam]
	if !ok || string(raw) == "null" {
		return types.Description{}, &DispatchError{Kind: KindMissingField}
	}

	if err := schemas.ValidateArguments(schema, []byte(arguments)); err != nil {
		return types.Description{}, &DispatchError{Kind: KindUnsupportedShape, Err: err}
	}

	switch schema.Shape() {
	case types.ShapeArray:
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return types.Description{}, &DispatchError{Kind: KindUnsupportedShape, Err: err}
		}
		return types.SequenceDescription(items), nil
	default:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return types.Description{}, &DispatchError{Kind: KindUnsupportedShape, Err: err}
		}
		return types.ScalarDescription(text), nil
	}
}
