package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/config"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai/gemini"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai/openai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability/promobs"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability/slogobs"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	envFile        string
	logLevel       string
	logFormat      string
	providerName   string
	maxActivations int
	metricsAddr    string
}

// app is the state shared by all commands once flags are parsed.
type app struct {
	opts rootOptions

	cfg      *config.Config
	logger   *slog.Logger
	observer observability.Provider
	metrics  *http.Server

	// newProvider builds the LLM provider; tests replace it.
	newProvider func(ctx context.Context) (ai.Provider, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{})
}

func newRootCmdFor(application *app) *cobra.Command {
	if application.newProvider == nil {
		application.newProvider = application.defaultProvider
	}

	cmd := &cobra.Command{
		Use:   "agentgraph",
		Short: "Run graph based agent workflows",
		Long: `agentgraph runs small agent workflows built on a state graph runtime:
a single responder, a keyword classifier, a calculator tool loop, a ReAct
sum agent and a ReAct web researcher.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return application.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return application.shutdown(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&application.opts.envFile, "env-file", ".env", "Path of the .env file to load")
	flags.StringVar(&application.opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default from LOG_LEVEL)")
	flags.StringVar(&application.opts.logFormat, "log-format", "", "Log format: compact, pretty, json (default from LOG_FORMAT)")
	flags.StringVar(&application.opts.providerName, "provider", "", "LLM provider: openai or gemini (default from AGENTGRAPH_PROVIDER)")
	flags.IntVar(&application.opts.maxActivations, "max-activations", 0, "Loop Guard budget per run (default from AGENTGRAPH_MAX_ACTIVATIONS, else the workflow's own)")
	flags.StringVar(&application.opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	cmd.AddCommand(newWorkflowCmds(application)...)
	cmd.AddCommand(
		newDiagramCmd(),
		newVectorCmd(application),
		newEmbedCmd(application),
	)
	return cmd
}

// setup loads the configuration and builds the observability stack.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.opts.envFile)
	if err != nil {
		return err
	}
	if a.opts.providerName != "" {
		cfg.Provider = strings.ToLower(a.opts.providerName)
	}
	if a.opts.maxActivations > 0 {
		cfg.MaxActivations = a.opts.maxActivations
	}
	a.cfg = cfg

	var logOptions []slogobs.Option
	if a.opts.logLevel != "" {
		logOptions = append(logOptions, slogobs.WithLevel(slogobs.ParseLogLevel(a.opts.logLevel)))
	}
	if a.opts.logFormat != "" {
		logOptions = append(logOptions, slogobs.WithFormat(slogobs.ParseFormat(a.opts.logFormat)))
	}
	logObserver := slogobs.New(logOptions...)
	a.logger = logObserver.Logger()
	a.observer = logObserver
	slog.SetDefault(a.logger)

	if a.opts.metricsAddr != "" {
		metricsObserver := promobs.New(logObserver)
		a.observer = metricsObserver
		a.serveMetrics(ctx, metricsObserver.Handler())
	}
	return nil
}

func (a *app) serveMetrics(ctx context.Context, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	a.metrics = &http.Server{
		Addr:              a.opts.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.logger.InfoContext(ctx, "serving metrics", "addr", a.opts.metricsAddr, "path", "/metrics")
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
}

func (a *app) shutdown(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.metrics.Shutdown(shutdownCtx)
}

// defaultProvider builds the provider selected by the configuration.
func (a *app) defaultProvider(ctx context.Context) (ai.Provider, error) {
	if err := a.cfg.RequireProvider(); err != nil {
		return nil, err
	}

	switch a.cfg.Provider {
	case "gemini", "google":
		provider, err := a.geminiProvider(ctx)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		provider := openai.NewOpenAIProvider().
			WithAPIKey(a.cfg.OpenAIAPIKey).
			WithModel(a.cfg.OpenAIModel)
		if a.cfg.OpenAIBaseURL != "" {
			provider = provider.WithBaseURL(a.cfg.OpenAIBaseURL)
		}
		a.logger.DebugContext(ctx, "llm client initialized", "provider", "openai", "model", provider.Model())
		return provider, nil
	}
}

func (a *app) geminiProvider(ctx context.Context) (*gemini.GeminiProvider, error) {
	provider, err := gemini.New(ctx, gemini.Config{
		APIKey:         a.cfg.GoogleAPIKey,
		Model:          a.cfg.GoogleModel,
		EmbeddingModel: a.cfg.GoogleEmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize gemini: %w", err)
	}
	a.logger.DebugContext(ctx, "llm client initialized", "provider", "gemini", "model", provider.Model())
	return provider, nil
}
