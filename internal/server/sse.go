package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-writer/internal/stream"
)

// SSE frame payloads for the stream terminals.
const (
	frameDone  = "[DONE]"
	frameError = "[ERROR]"
)

// SSEWriter writes generation frames as Server-Sent Events. It implements stream.FrameWriter.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

var _ stream.FrameWriter = (*SSEWriter)(nil)

// NewSSEWriter creates a new SSE writer and sets the event-stream headers.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteData sends one unit, JSON-encoded so that whitespace and quotes survive framing.
func (s *SSEWriter) WriteData(unit string) error {
	payload, err := json.Marshal(unit)
	if err != nil {
		return err
	}
	return s.writeFrame(string(payload))
}

// WriteDone sends the completion marker.
func (s *SSEWriter) WriteDone() error {
	return s.writeFrame(frameDone)
}

// WriteError sends the terminal error marker. An empty message yields a bare marker.
func (s *SSEWriter) WriteError(message string) error {
	if message == "" {
		return s.writeFrame(frameError)
	}
	return s.writeFrame(frameError + " " + message)
}

func (s *SSEWriter) writeFrame(data string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
