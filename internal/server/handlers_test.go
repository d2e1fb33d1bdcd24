package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-writer/internal/llm"
	"github.com/jonathan/resume-writer/internal/observability"
	"github.com/jonathan/resume-writer/internal/types"
	"github.com/jonathan/resume-writer/internal/usage"
)

const summaryBody = `{"jobDescription":"Build APIs","targetPosition":"Backend Engineer","targetCompany":"Acme"}`

func TestGenerateSummary_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "tool_calls": [{
				"id": "call_1", "type": "function",
				"function": {"name": "generate_summary", "arguments": "{\"description\": \"Experienced backend engineer...\"}"}
			}]}}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42}
		}`))
	}))
	defer upstream.Close()

	client, err := llm.NewOpenAIClient(&llm.Config{
		Provider: llm.ProviderOpenAI,
		BaseURL:  upstream.URL,
		APIKey:   "sk-test",
	}, observability.DiscardLogger())
	require.NoError(t, err)

	env := newTestEnv(t, client)
	resp := env.post(t, "/api/generate-summary", summaryBody, "user-1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"description": "Experienced backend engineer..."}`, readAll(t, resp.Body))
	assert.Equal(t, int64(42), env.counter.Total())
}

func TestGenerate_AllKinds(t *testing.T) {
	tests := []struct {
		path, tool, body, args, want string
	}{
		{"/api/generate-summary", "generate_summary", summaryBody,
			`{"description":"Summary text"}`, `{"description":"Summary text"}`},
		{"/api/generate-education", "generate_education_description",
			`{"institution":"MIT","degree":"BSc","fieldOfStudy":"CS","jobDescription":"Go"}`,
			`{"description":["a","b"]}`, `{"description":["a","b"]}`},
		{"/api/generate-experience", "generate_experience_description",
			`{"company":"Acme","position":"Eng","jobDescription":"Go"}`,
			`{"description":["shipped"]}`, `{"description":["shipped"]}`},
		{"/api/generate-project", "generate_project_description",
			`{"projectName":"Apollo","jobDescription":"Go"}`,
			`{"description":[]}`, `{"description":[]}`},
		{"/api/generate-certification", "generate_certification_description",
			`{"certificationName":"CKA","jobDescription":"Go"}`,
			`{"description":"Certified."}`, `{"description":"Certified."}`},
		{"/api/generate-publication", "generate_publication_description",
			`{"title":"Paper","publisher":"ACM","jobDescription":"Go"}`,
			`{"description":["cited"]}`, `{"description":["cited"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			env := newTestEnv(t, &fakeClient{resp: toolCall(tt.tool, tt.args, 7)})
			resp := env.post(t, tt.path, tt.body, "user-1")

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, tt.want, readAll(t, resp.Body))
			assert.Equal(t, int64(7), env.counter.Total())
		})
	}
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"missing required field", "/api/generate-summary", `{"jobDescription":"Go","targetPosition":"Eng"}`},
		{"empty body", "/api/generate-summary", ``},
		{"malformed json", "/api/generate-summary", `{"jobDescription":`},
		{"wrong field type", "/api/generate-experience", `{"company":"Acme","position":"Eng","jobDescription":"Go","technologies":"Go"}`},
		{"html-only job description", "/api/generate-summary", `{"jobDescription":"<p> </p>","targetPosition":"Eng","targetCompany":"Acme"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{resp: toolCall("generate_summary", `{"description":"x"}`, 1)}
			env := newTestEnv(t, client)
			resp := env.post(t, tt.path, tt.body, "user-1")

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, decodeBody(t, resp)["error"])
			assert.Equal(t, 0, client.callCount(), "completion must not be called")
		})
	}
}

func TestGenerate_InvalidStreamFlag(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})
	resp := env.post(t, "/api/generate-summary?stream=maybe", summaryBody, "user-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerate_DispatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeClient
		message string
	}{
		{"upstream", &fakeClient{err: errors.New("connection refused")}, "AI service error: connection refused"},
		{"no tool call", &fakeClient{resp: &llm.CompletionResponse{}}, "AI service error: Unexpected response from AI"},
		{"name mismatch", &fakeClient{resp: toolCall("other_tool", `{"description":"x"}`, 3)}, `AI service error: Unexpected tool call from AI: got ["other_tool"]`},
		{"invalid json", &fakeClient{resp: toolCall("generate_summary", `not json`, 3)}, "AI service error: Invalid JSON in tool call arguments"},
		{"missing field", &fakeClient{resp: toolCall("generate_summary", `{"text":"x"}`, 3)}, "AI service error: No description found in response"},
		{"wrong shape", &fakeClient{resp: toolCall("generate_summary", `{"description":["x"]}`, 3)}, "AI service error: Unsupported description format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.client)
			resp := env.post(t, "/api/generate-summary", summaryBody, "user-1")

			assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
			assert.Equal(t, tt.message, decodeBody(t, resp)["error"])
		})
	}
}

func TestGenerate_StreamScalar(t *testing.T) {
	client := &fakeClient{resp: toolCall("generate_summary", `{"description":"Seasoned  backend\nengineer"}`, 9)}
	env := newTestEnv(t, client)

	resp := env.post(t, "/api/generate-summary?stream=true", summaryBody, "user-1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "data: \"Seasoned\"\n\ndata: \"backend\"\n\ndata: \"engineer\"\n\ndata: [DONE]\n\n", readAll(t, resp.Body))
	assert.Equal(t, int64(9), env.counter.Total(), "streamed completions are counted")
}

func TestGenerate_StreamSequence(t *testing.T) {
	client := &fakeClient{resp: toolCall("generate_experience_description", `{"description":["Led the team","Cut costs 30%"]}`, 4)}
	env := newTestEnv(t, client)

	resp := env.post(t, "/api/generate-experience?stream=1",
		`{"company":"Acme","position":"Eng","jobDescription":"Go"}`, "user-1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data: \"Led the team\"\n\ndata: \"Cut costs 30%\"\n\ndata: [DONE]\n\n", readAll(t, resp.Body))
}

func TestGenerate_StreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
		frame  string
	}{
		{"no tool call", &fakeClient{resp: &llm.CompletionResponse{}}, "data: [ERROR] No tool call found\n\n"},
		{"name mismatch", &fakeClient{resp: toolCall("other", `{}`, 1)}, "data: [ERROR] No tool call found\n\n"},
		{"missing field", &fakeClient{resp: toolCall("generate_summary", `{}`, 1)}, "data: [ERROR] No description found in response\n\n"},
		{"invalid json", &fakeClient{resp: toolCall("generate_summary", `{`, 1)}, "data: [ERROR] Invalid JSON in tool call arguments\n\n"},
		{"wrong shape", &fakeClient{resp: toolCall("generate_summary", `{"description":42}`, 1)}, "data: [ERROR] Unsupported description format\n\n"},
		{"upstream", &fakeClient{err: errors.New("timeout")}, "data: [ERROR] AI service error: timeout\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.client)
			resp := env.post(t, "/api/generate-summary?stream=true", summaryBody, "user-1")

			require.Equal(t, http.StatusOK, resp.StatusCode)
			body := readAll(t, resp.Body)
			assert.Equal(t, tt.frame, body, "exactly one terminal error frame")
			assert.NotContains(t, body, "[DONE]")
		})
	}
}

func TestGenerate_StreamValidationFailsBeforeStreaming(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})
	resp := env.post(t, "/api/generate-summary?stream=true", `{"targetPosition":"Eng"}`, "user-1")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestTokenUsage(t *testing.T) {
	env := newTestEnv(t, &fakeClient{resp: toolCall("generate_summary", `{"description":"x"}`, 42)})

	resp := env.post(t, "/api/generate-summary", summaryBody, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.post(t, "/admin/token-usage", `{"password":"`+testAdminPassword+`"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(42), body["totalTokens"])
	assert.Equal(t, TokenUsageNote, body["note"])
	assert.NotContains(t, body, "users", "no journal configured")
}

type fakeReporter struct {
	users []usage.UserTotal
	err   error
}

func (f *fakeReporter) ByUser(context.Context) ([]usage.UserTotal, error) { return f.users, f.err }

func (f *fakeReporter) Recent(context.Context, int) ([]usage.Entry, error) { return nil, f.err }

func TestTokenUsage_JournalBreakdown(t *testing.T) {
	reporter := &fakeReporter{users: []usage.UserTotal{
		{UserID: "user-1", Requests: 3, TotalTokens: 120, LastSeen: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)},
		{UserID: "user-2", Requests: 1, TotalTokens: 7, LastSeen: time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)},
	}}
	env := newTestEnv(t, &fakeClient{}, func(o *Options) { o.Reporter = reporter })

	resp := env.post(t, "/admin/token-usage", `{"password":"`+testAdminPassword+`"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body types.TokenUsageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(0), body.TotalTokens)
	assert.Equal(t, reporter.users, body.Users)
}

func TestTokenUsage_JournalErrorOmitsBreakdown(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("connection refused")}
	env := newTestEnv(t, &fakeClient{}, func(o *Options) { o.Reporter = reporter })

	resp := env.post(t, "/admin/token-usage", `{"password":"`+testAdminPassword+`"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, TokenUsageNote, body["note"])
	assert.NotContains(t, body, "users")
}

func TestTokenUsage_Rejections(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})

	resp := env.post(t, "/admin/token-usage", `{"password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", decodeBody(t, resp)["error"])

	resp = env.post(t, "/admin/token-usage", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/admin/token-usage", `nope`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenUsage_NoSecretConfigured(t *testing.T) {
	env := newTestEnv(t, &fakeClient{}, func(o *Options) { o.Admin = nil })

	resp := env.post(t, "/admin/token-usage", `{"password":"anything"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestParseStreamFlag(t *testing.T) {
	tests := []struct {
		query   string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"stream=true", true, false},
		{"stream=1", true, false},
		{"stream=yes", true, false},
		{"stream=on", true, false},
		{"stream=False", false, false},
		{"stream=0", false, false},
		{"stream=off", false, false},
		{"stream=maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/generate-summary?"+tt.query, strings.NewReader(""))
			got, err := parseStreamFlag(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
