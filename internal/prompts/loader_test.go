package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "You are an ATS-optimized resume expert.", c.Persona)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, c, again)
}

func TestCatalog_SystemMessage(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "You are an ATS-optimized resume expert. Craft a professional summary.", c.SystemMessage("summary"))
	assert.Equal(t,
		"You are an ATS-optimized resume expert. Generate a detailed, keyword-rich description for a project entry.",
		c.SystemMessage("project"))
}

func TestCatalog_UserPreamblePerSection(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, kind := range []string{"summary", "education", "experience", "project", "certification", "publication"} {
		p, err := c.UserPreamble(kind)
		require.NoError(t, err, kind)
		assert.NotEmpty(t, p)
	}

	_, err = c.UserPreamble("skills")
	assert.ErrorContains(t, err, `no user preamble for section "skills"`)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"invalid json", `{`, "failed to parse prompt catalog"},
		{"no persona", `{"system": {"*": "x"}}`, "no persona"},
		{"no fallback", `{"persona": "p", "system": {"summary": "x"}}`, `no "*" system instruction`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "a project entry", Format("a {{.Section}} entry", map[string]string{"Section": "project"}))
	assert.Equal(t, "Hello {{.Name}}", Format("Hello {{.Name}}", map[string]string{}))
}
