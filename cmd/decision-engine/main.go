package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/audit"
	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/classify"
	"github.com/tributary-ai/llm-decision-engine/internal/config"
	"github.com/tributary-ai/llm-decision-engine/internal/engine"
	"github.com/tributary-ai/llm-decision-engine/internal/override"
	"github.com/tributary-ai/llm-decision-engine/internal/scoring"
	"github.com/tributary-ai/llm-decision-engine/internal/server"
)

// Application bundles the wired components.
type Application struct {
	config *config.Config
	engine *engine.Engine
	server *server.Server
	logger *logrus.Logger
}

// NewApplication loads configuration and wires the decision engine.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logrus.New()
	if err := setupLogger(logger, cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	cat, err := cfg.BuildCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build model catalog: %w", err)
	}

	classifier, err := buildClassifier(cfg, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	scorer := scoring.NewScorer(cat, cfg.BuildRules(), logger)
	overrides := override.NewLayer(cat, cfg.Override, logger)

	eng, err := engine.New(cat, classifier, scorer, overrides, cat.Models(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	trail := audit.NewTrail(&cfg.Audit, logger)

	srv, err := server.NewServer(eng, trail, cfg.ToServerConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Application{
		config: cfg,
		engine: eng,
		server: srv,
		logger: logger,
	}, nil
}

// Run starts the server and blocks until shutdown.
func (app *Application) Run() error {
	app.logger.Info("Starting LLM Decision Engine")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		app.logger.WithField("address", ":"+app.config.Server.Port).Info("HTTP server starting")
		if err := app.server.Start(); err != nil {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		app.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	app.logger.Info("Starting graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.WithError(err).Error("Server shutdown error")
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("Graceful shutdown completed")
	return nil
}

// buildClassifier assembles the classification path per configuration.
// The llm strategy always carries the heuristic as timeout fallback.
func buildClassifier(cfg *config.Config, cat *catalog.Catalog, logger *logrus.Logger) (classify.Classifier, error) {
	heuristic := classify.NewHeuristic()

	if cfg.Classifier.Strategy == "heuristic" {
		return heuristic, nil
	}

	var backend classify.Backend
	switch cfg.Classifier.Backend {
	case "openai":
		backend = classify.NewOpenAIBackend(cfg.Classifier.OpenAI, logger)
	case "anthropic":
		backend = classify.NewAnthropicBackend(cfg.Classifier.Anthropic, logger)
	default:
		return nil, fmt.Errorf("unsupported classifier backend: %s", cfg.Classifier.Backend)
	}

	model := cfg.Classifier.Model
	if model == "" {
		model = cat.Roles().Classifier
	}

	primary := classify.NewLLMClassifier(backend, model, cat, logger)
	return classify.WithFallback(primary, heuristic, cfg.Classifier.Timeout, logger), nil
}

// setupLogger configures the logger based on configuration.
func setupLogger(logger *logrus.Logger, cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(file)
	}

	return nil
}

// printUsage prints application usage information.
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY               OpenAI API key (llm classifier)\n")
	fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY            Anthropic API key (llm classifier)\n")
	fmt.Fprintf(os.Stderr, "  DECISION_ENGINE_PORT         Server port (default: 8080)\n")
	fmt.Fprintf(os.Stderr, "  DECISION_ENGINE_CLASSIFIER   Classifier strategy (heuristic,llm)\n")
	fmt.Fprintf(os.Stderr, "  DECISION_ENGINE_LOG_LEVEL    Log level (debug,info,warn,error,fatal)\n")
	fmt.Fprintf(os.Stderr, "  DECISION_ENGINE_LOG_FORMAT   Log format (json,text)\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --config configs/config.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  DECISION_ENGINE_CLASSIFIER=heuristic %s\n", os.Args[0])
}

func main() {
	// Load .env if present; real environment wins.
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "Path to configuration file")
		showHelp   = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if *version {
		fmt.Printf("LLM Decision Engine v1.0.0\n")
		os.Exit(0)
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}
