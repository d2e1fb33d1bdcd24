// Package prompts holds the embedded preambles used to open every section prompt.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// fallbackKey selects the system instruction for sections without their own entry.
const fallbackKey = "*"

//go:embed sections.json
var sectionsJSON []byte

// Catalog is the parsed prompt file.
type Catalog struct {
	Persona string            `json:"persona"`
	System  map[string]string `json:"system"`
	User    map[string]string `json:"user"`
}

var load = sync.OnceValues(func() (*Catalog, error) {
	return Parse(sectionsJSON)
})

// Load returns the embedded catalog, parsed once per process.
func Load() (*Catalog, error) {
	return load()
}

// Parse decodes and checks a prompt catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}
	if c.Persona == "" {
		return nil, fmt.Errorf("prompt catalog has no persona")
	}
	if c.System[fallbackKey] == "" {
		return nil, fmt.Errorf("prompt catalog has no %q system instruction", fallbackKey)
	}
	return &c, nil
}

// SystemMessage is the persona followed by the instruction for section.
func (c *Catalog) SystemMessage(section string) string {
	instruction, ok := c.System[section]
	if !ok {
		instruction = c.System[fallbackKey]
	}
	return c.Persona + " " + Format(instruction, map[string]string{"Section": section})
}

// UserPreamble is the opening phrase of the user message for section.
func (c *Catalog) UserPreamble(section string) (string, error) {
	p, ok := c.User[section]
	if !ok || p == "" {
		return "", fmt.Errorf("no user preamble for section %q", section)
	}
	return p, nil
}

// Format replaces {{.Key}} placeholders with values from data. Unknown placeholders are left as is.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, 2*len(data))
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
