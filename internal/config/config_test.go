package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-writer/internal/llm"
)

// clearEnv unsets every variable FromEnv reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "FRONTEND_URL", "LLM_PROVIDER", "LLM_MODEL", "OPENAI_BASE_URL", "OPENAI_API_KEY",
		"GEMINI_API_KEY", "STREAM_DELAY", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "TRACING_EXPORTER",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"port": "9000",
		"llm_provider": "gemini",
		"gemini_api_key": "g-key",
		"stream_delay": "5ms",
		"log_format": "json"
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "5ms", cfg.StreamDelay)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, "sk-test", cfg.APIKey())

	delay, err := cfg.StreamDelayDuration()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, delay)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"port": "9000", "llm_provider": "gemini", "gemini_api_key": "file-key"}`), 0644))
	t.Setenv("PORT", "7000")

	cfg, err := Load(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.Equal(t, "file-key", cfg.APIKey())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing openai key", Config{LLMProvider: "openai"}, "OPENAI_API_KEY is required"},
		{"missing gemini key", Config{LLMProvider: "gemini", OpenAIAPIKey: "sk"}, "GEMINI_API_KEY is required"},
		{"unknown provider", Config{LLMProvider: "mystery", OpenAIAPIKey: "sk"}, "unsupported LLM provider"},
		{"negative delay", Config{OpenAIAPIKey: "sk", StreamDelay: "-5ms"}, "must be non-negative"},
		{"bad delay", Config{OpenAIAPIKey: "sk", StreamDelay: "soon"}, "invalid stream_delay"},
		{"valid", Config{OpenAIAPIKey: "sk", StreamDelay: "0s"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		Port:        "8000",
		LLMModel:    "gpt-4o-mini",
		FrontendURL: "http://localhost:3000",
	}

	partial := Config{
		Port:        "9000",
		DatabaseURL: "postgres://localhost/resume",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "9000", merged.Port)
	assert.Equal(t, "postgres://localhost/resume", merged.DatabaseURL)

	// Default values should fill in empty fields
	assert.Equal(t, "gpt-4o-mini", merged.LLMModel)
	assert.Equal(t, "http://localhost:3000", merged.FrontendURL)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Port: "1234"}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, "1234", merged.Port)
	assert.Empty(t, merged.LLMModel)
}

func TestLLMConfig(t *testing.T) {
	cfg := Config{
		LLMProvider:  "openai",
		LLMModel:     "gpt-4o",
		LLMBaseURL:   "http://localhost:11434/v1",
		OpenAIAPIKey: "sk",
	}
	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "gpt-4o", lc.Model)
	assert.Equal(t, "http://localhost:11434/v1", lc.BaseURL)
	assert.Equal(t, "sk", lc.APIKey)

	gemini := Config{LLMProvider: "gemini", GeminiAPIKey: "g", LLMBaseURL: "ignored"}
	glc := gemini.LLMConfig()
	assert.Equal(t, llm.ProviderGemini, glc.Provider)
	assert.Empty(t, glc.BaseURL)
	assert.Equal(t, "gemini-2.5-flash", glc.GetModel())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8000", (&Config{}).Addr())
	assert.Equal(t, "127.0.0.1:9000", (&Config{Port: "127.0.0.1:9000"}).Addr())
}
