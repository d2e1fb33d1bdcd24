package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ArgumentError lists every way a tool call's arguments break the tool's parameter schema.
type ArgumentError struct {
	Tool       string
	Violations []Violation
}

// Violation is one failed constraint, located by its JSON field path.
type Violation struct {
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("%s arguments do not match schema: %s", e.Tool, strings.Join(parts, "; "))
}

// compiled caches parsed parameter schemas by tool name and shape.
var compiled sync.Map

func compile(schema ToolSchema) (*gojsonschema.Schema, error) {
	key := schema.Name + "/" + string(schema.Shape())
	if s, ok := compiled.Load(key); ok {
		return s.(*gojsonschema.Schema), nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.Parameters))
	if err != nil {
		return nil, fmt.Errorf("compile %s parameter schema: %w", schema.Name, err)
	}
	actual, _ := compiled.LoadOrStore(key, s)
	return actual.(*gojsonschema.Schema), nil
}

// ValidateArguments checks raw tool-call arguments against the tool's parameter schema.
// A non-nil error is either an *ArgumentError or a failure to read the arguments as JSON.
func ValidateArguments(schema ToolSchema, args []byte) error {
	s, err := compile(schema)
	if err != nil {
		return err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("read %s arguments: %w", schema.Name, err)
	}
	if result.Valid() {
		return nil
	}

	argErr := &ArgumentError{Tool: schema.Name}
	for _, re := range result.Errors() {
		field := re.Field()
		if field == "" || field == "(root)" {
			field = "arguments"
		}
		argErr.Violations = append(argErr.Violations, Violation{Field: field, Message: re.Description()})
	}
	return argErr
}
