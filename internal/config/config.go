// Package config loads the process configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvProvider             = "AGENTGRAPH_PROVIDER"
	EnvMaxActivations       = "AGENTGRAPH_MAX_ACTIVATIONS"
	EnvOpenAIAPIKey         = "OPENAI_API_KEY"
	EnvOpenAIModel          = "OPENAI_MODEL"
	EnvOpenAIBaseURL        = "OPENAI_BASE_URL"
	EnvGoogleAPIKey         = "GOOGLE_API_KEY"
	EnvGoogleModel          = "GOOGLE_MODEL"
	EnvGoogleEmbeddingModel = "GOOGLE_EMBEDDING_MODEL"
	EnvTavilyAPIKey         = "TAVILY_API_KEY"
	EnvQdrantHost           = "QDRANT_HOST"
	EnvQdrantPort           = "QDRANT_PORT"
	EnvQdrantAPIKey         = "QDRANT_API_KEY"
	EnvQdrantUseTLS         = "QDRANT_USE_TLS"
)

const (
	defaultProvider        = "openai"
	defaultOpenAIModel     = "gpt-3.5-turbo-0125"
	defaultGoogleModel     = "gemini-2.5-flash-lite"
	defaultGoogleEmbedding = "gemini-embedding-001"
	defaultQdrantHost      = "localhost"
	defaultQdrantPort      = 6334
)

// ErrMissingVariable is wrapped by the Require helpers.
var ErrMissingVariable = errors.New("environment variable is not defined")

// Config is the resolved process configuration.
type Config struct {
	Provider string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GoogleAPIKey         string
	GoogleModel          string
	GoogleEmbeddingModel string

	TavilyAPIKey string

	Qdrant QdrantConfig

	// MaxActivations overrides the Loop Guard budget of every run. Zero keeps
	// each workflow's default.
	MaxActivations int
}

// QdrantConfig holds the vector database connection settings.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Load reads .env files (a missing file is not an error) and then builds the
// configuration from the environment. Variables already set in the process
// environment take precedence over the files. Without arguments ".env" in the
// working directory is tried.
func Load(envFiles ...string) (*Config, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	return FromEnv()
}

// LoadDotEnv loads the given .env files, skipping those that do not exist.
func LoadDotEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			slog.Debug("env file not found", "path", path)
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		slog.Debug("loaded environment from env file", "path", path)
	}
	return nil
}

// FromEnv builds the configuration from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Provider:             strings.ToLower(getEnv(EnvProvider, defaultProvider)),
		OpenAIAPIKey:         os.Getenv(EnvOpenAIAPIKey),
		OpenAIModel:          getEnv(EnvOpenAIModel, defaultOpenAIModel),
		OpenAIBaseURL:        os.Getenv(EnvOpenAIBaseURL),
		GoogleAPIKey:         os.Getenv(EnvGoogleAPIKey),
		GoogleModel:          getEnv(EnvGoogleModel, defaultGoogleModel),
		GoogleEmbeddingModel: getEnv(EnvGoogleEmbeddingModel, defaultGoogleEmbedding),
		TavilyAPIKey:         os.Getenv(EnvTavilyAPIKey),
		Qdrant: QdrantConfig{
			Host:   getEnv(EnvQdrantHost, defaultQdrantHost),
			Port:   defaultQdrantPort,
			APIKey: os.Getenv(EnvQdrantAPIKey),
		},
	}

	var errs []error
	if value := os.Getenv(EnvQdrantPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s: invalid port %q", EnvQdrantPort, value))
		} else {
			cfg.Qdrant.Port = port
		}
	}
	if value := os.Getenv(EnvQdrantUseTLS); value != "" {
		useTLS, err := strconv.ParseBool(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", EnvQdrantUseTLS, value))
		} else {
			cfg.Qdrant.UseTLS = useTLS
		}
	}
	if value := os.Getenv(EnvMaxActivations); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be a positive integer, got %q", EnvMaxActivations, value))
		} else {
			cfg.MaxActivations = limit
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// RequireOpenAI returns an error unless the OpenAI API key is set.
func (cfg *Config) RequireOpenAI() error {
	return require(EnvOpenAIAPIKey, cfg.OpenAIAPIKey)
}

// RequireGoogle returns an error unless the Google API key is set.
func (cfg *Config) RequireGoogle() error {
	return require(EnvGoogleAPIKey, cfg.GoogleAPIKey)
}

// RequireTavily returns an error unless the Tavily API key is set.
func (cfg *Config) RequireTavily() error {
	return require(EnvTavilyAPIKey, cfg.TavilyAPIKey)
}

// RequireProvider checks the key of the configured LLM provider.
func (cfg *Config) RequireProvider() error {
	switch cfg.Provider {
	case "openai":
		return cfg.RequireOpenAI()
	case "gemini", "google":
		return cfg.RequireGoogle()
	default:
		return fmt.Errorf("unknown provider %q (want openai or gemini)", cfg.Provider)
	}
}

func require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", name, ErrMissingVariable)
	}
	return nil
}

func getEnv(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}
