package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tributary-ai/llm-decision-engine/internal/audit"
	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/classify"
	"github.com/tributary-ai/llm-decision-engine/internal/middleware"
	"github.com/tributary-ai/llm-decision-engine/internal/override"
	"github.com/tributary-ai/llm-decision-engine/internal/scoring"
	"github.com/tributary-ai/llm-decision-engine/internal/security"
	"github.com/tributary-ai/llm-decision-engine/internal/server"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Override   override.Config  `yaml:"override"`
	Audit      audit.Config     `yaml:"audit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Security   SecurityConfig   `yaml:"security"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	MaxPromptBytes int           `yaml:"max_prompt_bytes"`
}

// ClassifierConfig selects and configures the classification path.
// Strategy "heuristic" runs fully offline; "llm" calls the configured
// backend with the heuristic as timeout fallback.
type ClassifierConfig struct {
	Strategy  string                           `yaml:"strategy"` // "heuristic" or "llm"
	Backend   string                           `yaml:"backend"`  // "openai" or "anthropic"
	Model     string                           `yaml:"model"`    // defaults to the catalog's classifier role
	Timeout   time.Duration                    `yaml:"timeout"`
	OpenAI    *classify.OpenAIBackendConfig    `yaml:"openai"`
	Anthropic *classify.AnthropicBackendConfig `yaml:"anthropic"`
}

// CatalogConfig carries deployment overrides layered over the built-in
// capability tables.
type CatalogConfig struct {
	Models  []types.ModelProfile                           `yaml:"models"`
	Weights map[types.TaskCategory]types.TaskWeightProfile `yaml:"weights"`
	Roles   catalog.Roles                                  `yaml:"roles"`
}

// ScoringConfig carries per-rule delta overrides, keyed by rule name.
type ScoringConfig struct {
	AdjustmentDeltas map[string]float64 `yaml:"adjustment_deltas"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	Output string `yaml:"output"` // "stdout", "stderr", or file path
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	APIKeys      []string                    `yaml:"api_keys"`
	JWTSecret    string                      `yaml:"jwt_secret"`
	RateLimiting security.RateLimitConfig    `yaml:"rate_limiting"`
	CORS         middleware.CORSConfig       `yaml:"cors"`
	Validation   middleware.ValidationConfig `yaml:"request_validation"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	config.setDefaults()

	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values.
func (c *Config) setDefaults() {
	c.Server = ServerConfig{
		Port:           "8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxPromptBytes: 1 << 20,
	}

	c.Classifier = ClassifierConfig{
		Strategy: "heuristic",
		Backend:  "openai",
		Timeout:  5 * time.Second,
	}

	c.Override = override.DefaultConfig()

	c.Audit = audit.Config{
		Enabled:       true,
		BufferSize:    1000,
		FlushInterval: 10 * time.Second,
	}

	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	c.Security = SecurityConfig{
		APIKeys: []string{},
		RateLimiting: security.RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		CORS: middleware.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
		},
		Validation: middleware.ValidationConfig{
			Enabled:  false,
			SpecPath: "docs/openapi.yaml",
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnv overrides configuration from environment variables.
func (c *Config) loadFromEnv() {
	if port := os.Getenv("DECISION_ENGINE_PORT"); port != "" {
		c.Server.Port = port
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.Classifier.OpenAI == nil {
			c.Classifier.OpenAI = &classify.OpenAIBackendConfig{}
		}
		c.Classifier.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		if c.Classifier.Anthropic == nil {
			c.Classifier.Anthropic = &classify.AnthropicBackendConfig{}
		}
		c.Classifier.Anthropic.APIKey = key
	}

	if strategy := os.Getenv("DECISION_ENGINE_CLASSIFIER"); strategy != "" {
		c.Classifier.Strategy = strategy
	}
	if level := os.Getenv("DECISION_ENGINE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("DECISION_ENGINE_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if secret := os.Getenv("DECISION_ENGINE_JWT_SECRET"); secret != "" {
		c.Security.JWTSecret = secret
	}
}

// validate checks configuration consistency.
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	switch c.Classifier.Strategy {
	case "heuristic":
	case "llm":
		switch c.Classifier.Backend {
		case "openai":
			if c.Classifier.OpenAI == nil || c.Classifier.OpenAI.APIKey == "" {
				return fmt.Errorf("OpenAI API key is required for the llm classifier strategy")
			}
		case "anthropic":
			if c.Classifier.Anthropic == nil || c.Classifier.Anthropic.APIKey == "" {
				return fmt.Errorf("Anthropic API key is required for the llm classifier strategy")
			}
		default:
			return fmt.Errorf("invalid classifier backend: %s", c.Classifier.Backend)
		}
		if c.Classifier.Timeout <= 0 {
			return fmt.Errorf("classifier timeout must be positive")
		}
	default:
		return fmt.Errorf("invalid classifier strategy: %s", c.Classifier.Strategy)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	for cat := range c.Catalog.Weights {
		if !cat.IsValid() {
			return fmt.Errorf("unknown task category in weight overrides: %s", cat)
		}
	}

	if len(c.Scoring.AdjustmentDeltas) > 0 {
		known := make(map[string]bool)
		for _, name := range scoring.RuleNames() {
			known[name] = true
		}
		for name := range c.Scoring.AdjustmentDeltas {
			if !known[name] {
				return fmt.Errorf("unknown adjustment rule in delta overrides: %s", name)
			}
		}
	}

	return nil
}

// BuildCatalog layers the configured overrides over the built-in tables.
func (c *Config) BuildCatalog() (*catalog.Catalog, error) {
	return catalog.Merge(c.Catalog.Models, c.Catalog.Weights, c.Catalog.Roles)
}

// BuildRules returns the adjustment table with configured delta
// overrides applied.
func (c *Config) BuildRules() []scoring.AdjustmentRule {
	return scoring.ApplyDeltaOverrides(scoring.DefaultRules(), c.Scoring.AdjustmentDeltas)
}

// ToServerConfig converts to server.Config.
func (c *Config) ToServerConfig() *server.Config {
	return &server.Config{
		Port:           c.Server.Port,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		MaxHeaderBytes: c.Server.MaxHeaderBytes,
		MaxPromptBytes: c.Server.MaxPromptBytes,
		Security:       c.ToSecurityConfig(),
	}
}

// ToSecurityConfig converts to middleware.SecurityConfig.
func (c *Config) ToSecurityConfig() *middleware.SecurityConfig {
	return &middleware.SecurityConfig{
		Auth: &security.Config{
			APIKeys:     c.Security.APIKeys,
			JWTSecret:   c.Security.JWTSecret,
			RequireAuth: len(c.Security.APIKeys) > 0 || c.Security.JWTSecret != "",
		},
		RateLimit:  &c.Security.RateLimiting,
		Validation: &c.Security.Validation,
		CORS:       c.Security.CORS,
	}
}

// SaveToFile writes the current configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
