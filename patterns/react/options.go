package react

import (
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// config collects the settings applied by [New].
type config struct {
	name           string
	request        ai.ChatRequest
	maxActivations int
	observer       observability.Provider
}

func defaultConfig() config {
	return config{
		name:           "react",
		maxActivations: DefaultMaxActivations,
	}
}

// Option is a functional option for configuring the ReAct graph.
type Option func(*config)

// WithSystemPrompt sets the system prompt sent with every decide request.
func WithSystemPrompt(prompt string) Option {
	return func(c *config) {
		c.request.SystemPrompt = prompt
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *config) {
		c.request.Model = model
	}
}

// WithGenerationConfig overrides the provider's sampling parameters.
func WithGenerationConfig(generation *ai.GenerationConfig) Option {
	return func(c *config) {
		c.request.GenerationConfig = generation
	}
}

// WithMaxActivations sets the default Loop Guard budget of the graph.
// Values <= 0 keep [DefaultMaxActivations].
func WithMaxActivations(limit int) Option {
	return func(c *config) {
		if limit > 0 {
			c.maxActivations = limit
		}
	}
}

// WithObserver attaches an observability provider to every run.
func WithObserver(observer observability.Provider) Option {
	return func(c *config) {
		c.observer = observer
	}
}

// WithName labels the graph in logs, spans and metrics.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}
