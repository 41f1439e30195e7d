package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"glean/internal/score"
	"glean/internal/score/grade"

	"github.com/spf13/viper"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger: logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server: HTTP API configuration
	Server ServerConfig `mapstructure:"server"`
	// Scoring: rule engine configuration
	Scoring ScoringConfig `mapstructure:"scoring"`
	// History: in-memory evaluation history
	History HistoryConfig `mapstructure:"history"`
	// Journal: evaluation journal file
	Journal JournalConfig `mapstructure:"journal"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level: log level: debug, info, warn, warning, error (case-insensitive).
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address: address and port where the server will listen (e.g., ":8080").
	Address string `mapstructure:"address"`
	// Token: bearer token required on every API request.
	Token string `mapstructure:"token"`
}

// EmailConfig tunes the email check.
type EmailConfig struct {
	// DNS: also require the address domain to resolve.
	DNS bool `mapstructure:"dns"`
	// Timeout: DNS lookup timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScoringConfig defines the rule engine parameters.
type ScoringConfig struct {
	// Rules: path to the YAML rule file.
	Rules string `mapstructure:"rules"`
	// Watch: reload the rule file when it changes.
	Watch bool `mapstructure:"watch"`
	// Min, Max: absolute score range.
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
	// NonscoringPrefix: fields starting with it are ignored by rules.
	NonscoringPrefix string `mapstructure:"nonscoring_prefix"`
	// Email: email check settings.
	Email EmailConfig `mapstructure:"email"`
	// Grades: grade bands from best to worst.
	Grades grade.Bands `mapstructure:"grades"`
}

// HistoryConfig defines the evaluation history parameters.
type HistoryConfig struct {
	// Length: evaluations kept per submission.
	Length int `mapstructure:"length"`
	// TTL: how long a submission's history is kept after its last evaluation. Example: "24h".
	TTL time.Duration `mapstructure:"ttl"`
}

// JournalConfig defines the evaluation journal parameters.
type JournalConfig struct {
	// File: journal file path (optional, disabled when empty).
	File string `mapstructure:"file"`
	// Size: maximal journal file size in megabytes.
	Size int `mapstructure:"size"`
	// Amount: number of rotated journal files kept.
	Amount int `mapstructure:"amount"`
}

// Validate checks the correctness of the entire application configuration.
// Calls validation for each nested structure and returns the first detected error.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Scoring.Validate(); err != nil {
		return err
	}

	if err := c.History.Validate(); err != nil {
		return err
	}

	return c.Journal.Validate()
}

// Validate checks that the log level is one of the supported values.
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	return nil
}

// Validate checks that the server address is set.
func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return errors.New("server.address: must be specified")
	}

	return nil
}

// Validate checks the rule file, the score range and the grade bands.
func (s *ScoringConfig) Validate() error {
	if s.Rules == "" {
		return errors.New("scoring.rules: must be specified")
	}

	if s.Min > s.Max {
		return fmt.Errorf("scoring: min %d is above max %d", s.Min, s.Max)
	}

	if s.Email.Timeout < 0 {
		return errors.New("scoring.email.timeout: must not be negative")
	}

	if err := s.Grades.Validate(); err != nil {
		return fmt.Errorf("scoring.%w", err)
	}

	return nil
}

// Validate checks the history parameters.
func (h *HistoryConfig) Validate() error {
	if h.Length <= 0 {
		return errors.New("history.length: must be positive")
	}

	if h.TTL <= 0 {
		return errors.New("history.ttl: must be positive")
	}

	return nil
}

// Validate fills journal defaults.
func (j *JournalConfig) Validate() error {
	if j.Amount == 0 {
		j.Amount = 20
	}

	if j.Size == 0 {
		j.Size = 100
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("scoring.watch", true)
	v.SetDefault("scoring.min", score.DefaultMin)
	v.SetDefault("scoring.max", score.DefaultMax)
	v.SetDefault("scoring.nonscoring_prefix", "_")
	v.SetDefault("scoring.email.timeout", "2s")
	v.SetDefault("history.length", 10)
	v.SetDefault("history.ttl", "24h")

	bands := make([]map[string]any, 0, len(grade.Default))
	for _, b := range grade.Default {
		bands = append(bands, map[string]any{"name": b.Name, "max": b.Max})
	}
	v.SetDefault("scoring.grades", bands)
}

// LoadConfig loads configuration from the specified YAML file using Viper.
// Environment variables prefixed with GLEAN_ override file values,
// e.g. GLEAN_SERVER_TOKEN for server.token.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("glean")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
