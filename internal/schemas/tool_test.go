package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/resume-writer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolSchema_Scalar(t *testing.T) {
	schema := NewToolSchema("generate_summary", types.ShapeScalar)

	assert.Equal(t, "generate_summary", schema.Name)
	assert.Equal(t, "Generates summary", schema.Description)
	assert.Equal(t, types.ShapeScalar, schema.Shape())

	params, err := schema.ParametersJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {"description": {"type": "string"}},
		"required": ["description"]
	}`, string(params))
}

func TestNewToolSchema_Array(t *testing.T) {
	schema := NewToolSchema("generate_experience_description", types.ShapeArray)

	assert.Equal(t, "Generates experience", schema.Description)
	assert.Equal(t, types.ShapeArray, schema.Shape())

	params, err := schema.ParametersJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {"description": {"type": "array", "items": {"type": "string"}}},
		"required": ["description"]
	}`, string(params))
}

func TestDescriptionFromToolName(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"generate_summary", "Generates summary"},
		{"generate_education_description", "Generates education"},
		{"generate_certification_description", "Generates certification"},
		{"custom_tool", "Generates custom_tool"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			assert.Equal(t, tt.want, DescriptionFromToolName(tt.tool))
		})
	}
}

func TestValidateArguments(t *testing.T) {
	scalar := NewToolSchema("generate_summary", types.ShapeScalar)
	array := NewToolSchema("generate_project_description", types.ShapeArray)

	tests := []struct {
		name    string
		schema  ToolSchema
		args    string
		wantErr bool
	}{
		{"scalar ok", scalar, `{"description": "Experienced engineer"}`, false},
		{"scalar given array", scalar, `{"description": ["a"]}`, true},
		{"array ok", array, `{"description": ["Led team of 5", "Reduced latency by 30%"]}`, false},
		{"array given string", array, `{"description": "one"}`, true},
		{"array with non-string item", array, `{"description": ["ok", 3]}`, true},
		{"missing description", scalar, `{"summary": "x"}`, true},
		{"extra fields allowed", scalar, `{"description": "x", "confidence": 0.9}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(tt.schema, []byte(tt.args))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ae *ArgumentError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.schema.Name, ae.Tool)
			assert.NotEmpty(t, ae.Violations)
		})
	}
}

func TestShapeAgreesWithDeclaredType(t *testing.T) {
	for _, shape := range []types.OutputShape{types.ShapeScalar, types.ShapeArray} {
		schema := NewToolSchema("generate_x", shape)

		var decoded map[string]any
		params, err := schema.ParametersJSON()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(params, &decoded))

		props := decoded["properties"].(map[string]any)
		desc := props["description"].(map[string]any)
		if shape == types.ShapeScalar {
			assert.Equal(t, "string", desc["type"])
		} else {
			assert.Equal(t, "array", desc["type"])
			assert.Equal(t, "string", desc["items"].(map[string]any)["type"])
		}
	}
}

func TestValidateArguments_MessageNamesField(t *testing.T) {
	array := NewToolSchema("generate_publication_description", types.ShapeArray)

	err := ValidateArguments(array, []byte(`{"description": ["ok", 3]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate_publication_description arguments do not match schema")
	assert.Contains(t, err.Error(), "description.1")
}

func TestValidateArguments_NotJSON(t *testing.T) {
	err := ValidateArguments(NewToolSchema("generate_summary", types.ShapeScalar), []byte(`{"description":`))
	require.Error(t, err)

	var ae *ArgumentError
	assert.False(t, errors.As(err, &ae))
}
