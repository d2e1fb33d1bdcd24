package sections

import "fmt"

// InputError is returned when a section input fails validation before prompt assembly.
type InputError struct {
	Kind    string
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s input: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid %s input: %s", e.Kind, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}
