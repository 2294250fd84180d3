package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storyagent/internal/facts"
	"storyagent/internal/mangle"
	"storyagent/internal/rules"
)

// Config holds all storyagent configuration.
type Config struct {
	// LLM collaborator used for extraction and rewriting
	LLM LLMConfig `yaml:"llm"`

	// Revision loop
	Agent AgentConfig `yaml:"agent"`

	// Background ontology source
	Ontology OntologyConfig `yaml:"ontology"`

	// Closure engine
	Mangle mangle.Config `yaml:"mangle"`

	// Fact normalization
	Normalizer facts.Options `yaml:"normalizer"`

	// Rule limits
	Thresholds rules.Thresholds `yaml:"thresholds"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the extraction and rewrite client.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // ollama, openai, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	Temperature float64 `yaml:"temperature"`
}

// AgentConfig configures the revision loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	// BatchConcurrency bounds parallel checks in batch mode.
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// OntologyConfig locates the background ontology.
type OntologyConfig struct {
	// BackgroundPath is a YAML ontology document; empty uses the embedded one.
	BackgroundPath string `yaml:"background_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.1",
			BaseURL:     "http://localhost:11434/v1",
			Timeout:     "120s",
			Temperature: 0.1,
		},

		Agent: AgentConfig{
			MaxIterations:    3,
			BatchConcurrency: 4,
		},

		Mangle:     mangle.DefaultConfig(),
		Normalizer: facts.DefaultOptions(),
		Thresholds: rules.DefaultThresholds(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies STORYAGENT_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("STORYAGENT_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("STORYAGENT_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("STORYAGENT_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("STORYAGENT_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("STORYAGENT_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STORYAGENT_MAX_ITERATIONS %q: %w", v, err)
		}
		c.Agent.MaxIterations = n
	}

	// Provider-native keys fill in when no explicit key is set.
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	return nil
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"ollama", "openai", "gemini"}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		errs = append(errs, fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders))
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" && validProvider {
		errs = append(errs, fmt.Errorf("LLM API key not configured for %s (set STORYAGENT_LLM_API_KEY)", c.LLM.Provider))
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err))
		}
	}

	if c.Agent.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("agent.max_iterations must be at least 1, got %d", c.Agent.MaxIterations))
	}
	if c.Agent.BatchConcurrency < 0 {
		errs = append(errs, fmt.Errorf("agent.batch_concurrency must not be negative, got %d", c.Agent.BatchConcurrency))
	}
	if c.Mangle.DerivedFactLimit <= 0 {
		errs = append(errs, fmt.Errorf("mangle.derived_fact_limit must be positive, got %d", c.Mangle.DerivedFactLimit))
	}
	if c.Normalizer.TalkativeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("normalizer.talkative_threshold must be positive, got %d", c.Normalizer.TalkativeThreshold))
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("thresholds: %w", err))
	}

	return errors.Join(errs...)
}

// ValidateOffline checks everything except the LLM section, for commands
// that never call a model.
func (c *Config) ValidateOffline() error {
	saved := c.LLM
	c.LLM = LLMConfig{Provider: "ollama"}
	defer func() { c.LLM = saved }()
	return c.Validate()
}
