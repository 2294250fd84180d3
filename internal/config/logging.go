package config

import "storyagent/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string          `yaml:"level"`                  // debug, info, warn, error
	Format      string          `yaml:"format"`                 // json, console
	Categories  map[string]bool `yaml:"categories,omitempty"`   // Per-category toggles
	OutputPaths []string        `yaml:"output_paths,omitempty"` // Defaults to stderr
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// ToLogging converts the section into the logging package's config.
func (c LoggingConfig) ToLogging() logging.Config {
	return logging.Config{
		Level:       c.Level,
		Format:      c.Format,
		Categories:  c.Categories,
		OutputPaths: c.OutputPaths,
	}
}
