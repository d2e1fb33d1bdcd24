// Package observability provides logging, tracing and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-writer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines are wrapped at word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, wrapped)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into chunks no wider than width. A single word longer than width is truncated.
func wrap(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var out []string
	var cur strings.Builder
	for _, w := range words {
		if len(w) > width {
			w = w[:width-3] + "..."
		}
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	return append(out, cur.String())
}

// PrintPrompt outputs the conversation sent to the model and the tool it must call.
func (p *Printer) PrintPrompt(messages []types.Message, toolName string) {
	if len(messages) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tool: %s\n", toolName))
	for _, m := range messages {
		sb.WriteString(fmt.Sprintf("\n[%s]\n%s\n", m.Role, m.Content))
	}

	p.printBox("PROMPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDescription outputs a generated description. Sequences show the first few items.
func (p *Printer) PrintDescription(desc types.Description) {
	var sb strings.Builder

	switch desc.Shape() {
	case types.ShapeArray:
		items := desc.Items()
		sb.WriteString(fmt.Sprintf("Generated %d bullets:\n\n", len(items)))
		count := min(len(items), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("• %s\n", items[i]))
		}
		if len(items) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more bullets\n", len(items)-maxItemsToShow))
		}
	default:
		sb.WriteString(desc.Text())
	}

	p.printBox("GENERATED DESCRIPTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUsage outputs the running token total.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintUsage(totalTokens int64) {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("TOKENS USED: %d", totalTokens))
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}
