package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/resume-writer/internal/dispatch"
	"github.com/jonathan/resume-writer/internal/sections"
	"github.com/jonathan/resume-writer/internal/server/middleware"
	"github.com/jonathan/resume-writer/internal/stream"
	"github.com/jonathan/resume-writer/internal/types"
)

// maxBodyBytes caps request bodies; job descriptions are the largest field.
const maxBodyBytes = 1 << 20

// TokenUsageNote accompanies the admin token total.
const TokenUsageNote = "Streaming and non-streaming calls are tracked since process start"

func jsonEncode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// decodeJSON reads one JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Field: "body", Message: "request body is required"}
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &ErrValidation{Field: "body", Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// parseStreamFlag reads the optional stream query parameter.
func parseStreamFlag(r *http.Request) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("stream"))
	switch strings.ToLower(raw) {
	case "":
		return false, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ErrValidation{Field: "stream", Message: fmt.Sprintf("invalid boolean %q", raw)}
	}
	return v, nil
}

// handleGenerate serves one section kind: build the prompt, run the completion, then respond with JSON
// or hand the result to a segmenter.
func (s *Server) handleGenerate(kind types.SectionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streaming, err := parseStreamFlag(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		input, err := types.NewSectionInput(kind)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := decodeJSON(w, r, input); err != nil {
			s.writeError(w, err)
			return
		}

		bundle, err := sections.Build(input)
		if err != nil {
			s.writeError(w, err)
			return
		}

		userID, _ := middleware.UserIDFromContext(r.Context())
		req := dispatch.Request{Bundle: bundle, Stream: streaming, UserID: userID}

		if streaming {
			s.streamGeneration(w, r, req)
			return
		}

		desc, err := s.dispatcher.Dispatch(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, types.GenerationResponse{Description: desc})
	}
}

// streamGeneration opens the event stream and lets a segmenter own it until a terminal frame.
func (s *Server) streamGeneration(w http.ResponseWriter, r *http.Request, req dispatch.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)

	seg := stream.New(sse, s.streamDelay)
	err = seg.Run(r.Context(), func(ctx context.Context) (types.Description, error) {
		return s.dispatcher.Dispatch(ctx, req)
	})
	if err != nil {
		s.logger.Debug("stream ended early",
			"tool", req.Bundle.ToolName,
			"state", seg.State().String(),
			"error", err,
		)
	}
}

// handleTokenUsage reports the process-wide token total to holders of the admin secret.
func (s *Server) handleTokenUsage(w http.ResponseWriter, r *http.Request) {
	var req types.TokenUsageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, &ErrValidation{Field: "password", Message: "password is required"})
		return
	}

	if !s.admin.VerifyPassword(req.Password) {
		s.writeError(w, &ErrUnauthorized{})
		return
	}

	resp := types.TokenUsageResponse{
		TotalTokens: s.counter.Total(),
		Note:        TokenUsageNote,
	}
	if s.reporter != nil {
		users, err := s.reporter.ByUser(r.Context())
		if err != nil {
			s.logger.Warn("usage journal breakdown unavailable", "error", err)
		} else {
			resp.Users = users
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
