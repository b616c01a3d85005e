// Package config provides configuration management for formulary commands.
package config

import (
	"fmt"
)

// Settings holds runtime configuration shared by all commands.
type Settings struct {
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	Precision   int
}

// DefaultSettings returns configuration with default values.
func DefaultSettings() *Settings {
	return &Settings{
		DatabaseURL: "sqlite://formulary.db",
		LogLevel:    "info",
		LogFormat:   "text",
		Precision:   10,
	}
}

// validateSettings checks log level/format vocabulary and precision range.
func validateSettings(s *Settings) error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", s.LogFormat)
	}
	if s.Precision < 0 || s.Precision > 15 {
		return fmt.Errorf("precision must be between 0 and 15, got %d", s.Precision)
	}
	if s.DatabaseURL == "" {
		return fmt.Errorf("database url must not be empty")
	}
	return nil
}
