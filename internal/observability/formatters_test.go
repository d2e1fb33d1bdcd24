package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-writer/internal/types"
)

func TestPrintPrompt(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPrompt([]types.Message{
		{Role: types.RoleSystem, Content: "You are a resume writer."},
		{Role: types.RoleUser, Content: "Write a summary for Ada Lovelace, a Mathematician with 10 years of experience."},
	}, "generate_summary")
	output := buf.String()

	assert.Contains(t, output, "PROMPT")
	assert.Contains(t, output, "Tool: generate_summary")
	assert.Contains(t, output, "[system]")
	assert.Contains(t, output, "[user]")
	assert.Contains(t, output, "Ada Lovelace")
}

func TestPrintPrompt_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPrompt(nil, "generate_summary")
	assert.Empty(t, buf.String())
}

func TestPrintDescription_Scalar(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDescription(types.ScalarDescription("Analytical engine pioneer."))

	output := buf.String()
	assert.Contains(t, output, "GENERATED DESCRIPTION")
	assert.Contains(t, output, "Analytical engine pioneer.")
}

func TestPrintDescription_SequenceTruncates(t *testing.T) {
	var buf bytes.Buffer
	items := []string{"one", "two", "three", "four", "five", "six", "seven"}
	NewPrinter(&buf).PrintDescription(types.SequenceDescription(items))

	output := buf.String()
	assert.Contains(t, output, "Generated 7 bullets")
	assert.Contains(t, output, "• five")
	assert.NotContains(t, output, "• six")
	assert.Contains(t, output, "... and 2 more bullets")
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintUsage(42)
	assert.Contains(t, buf.String(), "TOKENS USED: 42")
}

func TestPrintBox_WrapsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("word ", 40)
	p.printBox("TITLE", long)

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth, "line too wide: %q", line)
	}
	assert.Equal(t, 40, strings.Count(buf.String(), "word"))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{""}, wrap("   ", 10))
	assert.Equal(t, []string{"aa bb", "cc"}, wrap("aa bb cc", 5))
	assert.Equal(t, []string{"abcd..."}, wrap("abcdefghijkl", 7))
}
