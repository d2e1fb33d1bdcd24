package types

import (
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-writer/internal/usage"
)

// TokenUsageRequest is the admin request for the process-wide token total.
type TokenUsageRequest struct {
	Password string `json:"password" validate:"required"`
}

// TokenUsageResponse reports tokens consumed since process start. Users is the per-user breakdown
// from the usage journal and is present only when a journal is configured.
type TokenUsageResponse struct {
	TotalTokens int64             `json:"totalTokens"`
	Note        string            `json:"note"`
	Users       []usage.UserTotal `json:"users,omitempty"`
}

// Validate validates the TokenUsageRequest using the validator.
func (r *TokenUsageRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
