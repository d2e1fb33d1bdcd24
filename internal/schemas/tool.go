// Package schemas builds the tool schemas offered to the completion API and validates the
// structured arguments the model returns against them.
package schemas

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-writer/internal/types"
)

// DescriptionParam is the single required parameter every section tool declares.
const DescriptionParam = "description"

// ToolSchema is a single-function tool descriptor.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema is the JSON schema of a tool's arguments object.
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema is the JSON schema of one argument.
type PropertySchema struct {
	Type  string          `json:"type"`
	Items *PropertySchema `json:"items,omitempty"`
}

// NewToolSchema builds the tool schema for a section tool. The description parameter is a
// string for ShapeScalar and an array of strings for ShapeArray.
func NewToolSchema(toolName string, shape types.OutputShape) ToolSchema {
	prop := PropertySchema{Type: "string"}
	if shape == types.ShapeArray {
		prop = PropertySchema{Type: "array", Items: &PropertySchema{Type: "string"}}
	}

	return ToolSchema{
		Name:        toolName,
		Description: DescriptionFromToolName(toolName),
		Parameters: ParameterSchema{
			Type:       "object",
			Properties: map[string]PropertySchema{DescriptionParam: prop},
			Required:   []string{DescriptionParam},
		},
	}
}

// DescriptionFromToolName derives the human-readable tool description by stripping the
// generate_ prefix and _description suffix, e.g. generate_project_description -> "Generates project".
func DescriptionFromToolName(toolName string) string {
	subject := strings.Replace(toolName, "generate_", "", 1)
	subject = strings.Replace(subject, "_description", "", 1)
	return "Generates " + subject
}

// Shape reports the output shape declared by the description parameter.
func (s ToolSchema) Shape() types.OutputShape {
	if s.Parameters.Properties[DescriptionParam].Type == "array" {
		return types.ShapeArray
	}
	return types.ShapeScalar
}

// ParametersJSON returns the parameters object as raw JSON for wire encoding.
func (s ToolSchema) ParametersJSON() (json.RawMessage, error) {
	return json.Marshal(s.Parameters)
}
