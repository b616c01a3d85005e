package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadSettings loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadSettings(configPath string) (*Settings, error) {
	v := viper.New()

	// Set defaults matching DefaultSettings
	v.SetDefault("db.url", "sqlite://formulary.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("engine.precision", 10)

	// Bind environment variables with FORMULARY_ prefix
	v.SetEnvPrefix("FORMULARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	s := &Settings{
		DatabaseURL: v.GetString("db.url"),
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		Precision:   v.GetInt("engine.precision"),
	}

	if err := validateSettings(s); err != nil {
		return nil, err
	}

	return s, nil
}
