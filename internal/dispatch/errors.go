package dispatch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a dispatch produced no description.
type ErrorKind string

const (
	// KindUpstream is a transport or provider failure of the completion call.
	KindUpstream ErrorKind = "upstream"
	// KindNoToolCall means the response carried no tool call at all.
	KindNoToolCall ErrorKind = "no_tool_call"
	// KindNameMismatch means no returned tool call had the requested name.
	KindNameMismatch ErrorKind = "name_mismatch"
	// KindInvalidJSON means the matching tool call's arguments were not a JSON object.
	KindInvalidJSON ErrorKind = "invalid_json"
	// KindMissingField means the arguments had no description.
	KindMissingField ErrorKind = "missing_field"
	// KindUnsupportedShape means description did not match the declared shape.
	KindUnsupportedShape ErrorKind = "unsupported_shape"
)

// DispatchError is the single failure type returned by Dispatch.
type DispatchError struct {
	Kind ErrorKind
	// Got lists the tool names returned on a name mismatch.
	Got []string
	Err error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindNoToolCall:
		return "Unexpected response from AI"
	case KindNameMismatch:
		return fmt.Sprintf("Unexpected tool call from AI: got %q", e.Got)
	case KindInvalidJSON:
		return "Invalid JSON in tool call arguments"
	case KindMissingField:
		return "No description found in response"
	case KindUnsupportedShape:
		return "Unsupported description format"
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "completion failed"
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// StreamMessage is the text carried by the terminal error frame of a stream.
func (e *DispatchError) StreamMessage() string {
	switch e.Kind {
	case KindNoToolCall, KindNameMismatch:
		return "No tool call found"
	case KindUpstream:
		return "AI service error: " + e.Error()
	default:
		return e.Error()
	}
}

// IsContractViolation reports whether the provider answered but broke the tool contract.
func (e *DispatchError) IsContractViolation() bool {
	return e.Kind != KindUpstream
}

// AsDispatchError unwraps err into a DispatchError, wrapping anything else as upstream.
func AsDispatchError(err error) *DispatchError {
	var de *DispatchError
	if errors.As(err, &de) {
		return de
	}
	return &DispatchError{Kind: KindUpstream, Err: err}
}
