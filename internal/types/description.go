package types

import (
	"encoding/json"
	"strings"
)

// OutputShape declares whether a section's generated description is one string or a list of strings.
type OutputShape string

const (
	// ShapeScalar is a single string description (summary, certification).
	ShapeScalar OutputShape = "scalar"
	// ShapeArray is a list of bullet strings (education, experience, project, publication).
	ShapeArray OutputShape = "array"
)

// Description is the structured result of a generation: exactly one of a scalar text or a sequence of items.
type Description struct {
	shape OutputShape
	text  string
	items []string
}

// ScalarDescription wraps a single generated string.
func ScalarDescription(text string) Description {
	return Description{shape: ShapeScalar, text: text}
}

// SequenceDescription wraps a list of generated bullets.
func SequenceDescription(items []string) Description {
	cp := make([]string, len(items))
	copy(cp, items)
	return Description{shape: ShapeArray, items: cp}
}

// Shape returns the variant held by d.
func (d Description) Shape() OutputShape { return d.shape }

// Text returns the scalar value. It is empty for sequence descriptions.
func (d Description) Text() string { return d.text }

// Items returns a copy of the sequence value. It is nil for scalar descriptions.
func (d Description) Items() []string {
	if d.shape != ShapeArray {
		return nil
	}
	cp := make([]string, len(d.items))
	copy(cp, d.items)
	return cp
}

// Units splits the description into streamable units: whitespace-separated words for a
// scalar, whole elements for a sequence. Order is preserved.
func (d Description) Units() []string {
	if d.shape == ShapeArray {
		return d.Items()
	}
	return strings.Fields(d.text)
}

// MarshalJSON encodes the description as a JSON string or array of strings.
func (d Description) MarshalJSON() ([]byte, error) {
	if d.shape == ShapeArray {
		if d.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.items)
	}
	return json.Marshal(d.text)
}

// GenerationResponse is the non-streaming response body of every section endpoint.
type GenerationResponse struct {
	Description Description `json:"description"`
}
