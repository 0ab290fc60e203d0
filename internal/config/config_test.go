package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVariables = []string{
	EnvProvider, EnvMaxActivations,
	EnvOpenAIAPIKey, EnvOpenAIModel, EnvOpenAIBaseURL,
	EnvGoogleAPIKey, EnvGoogleModel, EnvGoogleEmbeddingModel,
	EnvTavilyAPIKey,
	EnvQdrantHost, EnvQdrantPort, EnvQdrantAPIKey, EnvQdrantUseTLS,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allVariables {
		t.Setenv(name, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-3.5-turbo-0125", cfg.OpenAIModel)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GoogleModel)
	assert.Equal(t, "gemini-embedding-001", cfg.GoogleEmbeddingModel)
	assert.Equal(t, QdrantConfig{Host: "localhost", Port: 6334}, cfg.Qdrant)
	assert.Zero(t, cfg.MaxActivations)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProvider, "Gemini")
	t.Setenv(EnvGoogleAPIKey, "g-key")
	t.Setenv(EnvQdrantHost, "qdrant.internal")
	t.Setenv(EnvQdrantPort, "6400")
	t.Setenv(EnvQdrantUseTLS, "true")
	t.Setenv(EnvMaxActivations, "10")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "g-key", cfg.GoogleAPIKey)
	assert.Equal(t, QdrantConfig{Host: "qdrant.internal", Port: 6400, UseTLS: true}, cfg.Qdrant)
	assert.Equal(t, 10, cfg.MaxActivations)
	assert.NoError(t, cfg.RequireProvider())
}

func TestFromEnv_InvalidValuesReportedTogether(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvQdrantPort, "abc")
	t.Setenv(EnvQdrantUseTLS, "maybe")
	t.Setenv(EnvMaxActivations, "-1")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvQdrantPort)
	assert.Contains(t, err.Error(), EnvQdrantUseTLS)
	assert.Contains(t, err.Error(), EnvMaxActivations)
}

func TestRequire(t *testing.T) {
	cfg := &Config{Provider: "openai"}

	err := cfg.RequireOpenAI()
	assert.ErrorIs(t, err, ErrMissingVariable)
	assert.Contains(t, err.Error(), EnvOpenAIAPIKey)
	assert.ErrorIs(t, cfg.RequireProvider(), ErrMissingVariable)
	assert.ErrorIs(t, cfg.RequireGoogle(), ErrMissingVariable)
	assert.ErrorIs(t, cfg.RequireTavily(), ErrMissingVariable)

	cfg.OpenAIAPIKey = "sk-test"
	assert.NoError(t, cfg.RequireOpenAI())

	cfg.Provider = "anthropic"
	assert.Error(t, cfg.RequireProvider())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are set, so unset them.
	for _, name := range []string{EnvOpenAIAPIKey, EnvTavilyAPIKey} {
		require.NoError(t, os.Unsetenv(name))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-from-file\nTAVILY_API_KEY=tvly-file\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvOpenAIAPIKey)
		_ = os.Unsetenv(EnvTavilyAPIKey)
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.OpenAIAPIKey)
	assert.Equal(t, "tvly-file", cfg.TavilyAPIKey)
}

func TestLoad_ProcessEnvironmentWins(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIModel, "gpt-4o-mini")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_MODEL=from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
}

func TestLoad_MissingFileTolerated(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
