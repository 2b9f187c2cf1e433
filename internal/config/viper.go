// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TXLEDGER_DATABASE_DSN.
const EnvPrefix = "TXLEDGER"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Driver             string `mapstructure:"driver" yaml:"driver"`
		DSN                string `mapstructure:"dsn" yaml:"-"`
		MaxOpenConns       int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
		MaxIdleConns       int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
		ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
		AutoMigrate        bool   `mapstructure:"auto_migrate" yaml:"auto_migrate"`
	} `mapstructure:"database" yaml:"database"`

	Server struct {
		Port                int `mapstructure:"port" yaml:"port"`
		ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
		ShutdownSeconds     int `mapstructure:"shutdown_seconds" yaml:"shutdown_seconds"`
	} `mapstructure:"server" yaml:"server"`

	Lexicon struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"lexicon" yaml:"lexicon"`

	Classification Classification `mapstructure:"classification" yaml:"classification"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Import struct {
		CSVDelimiter   string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
		OrganizationID string `mapstructure:"organization_id" yaml:"organization_id"`
	} `mapstructure:"import" yaml:"import"`
}

// Classification holds the heuristic constants of the inline classifier and
// the suggestion generator. The defaults are the historical values.
type Classification struct {
	RuleConfidenceFloor   float64 `mapstructure:"rule_confidence_floor" yaml:"rule_confidence_floor"`
	RuleCandidateLimit    int     `mapstructure:"rule_candidate_limit" yaml:"rule_candidate_limit"`
	SimilarityThreshold   float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	HistoryWindow         int     `mapstructure:"history_window" yaml:"history_window"`
	MinKeywordLength      int     `mapstructure:"min_keyword_length" yaml:"min_keyword_length"`
	PositionalBonusWindow int     `mapstructure:"positional_bonus_window" yaml:"positional_bonus_window"`
	PositionalBonus       float64 `mapstructure:"positional_bonus" yaml:"positional_bonus"`
	BaseConfidence        float64 `mapstructure:"base_confidence" yaml:"base_confidence"`
	CountScale            float64 `mapstructure:"count_scale" yaml:"count_scale"`
	MaxConfidence         float64 `mapstructure:"max_confidence" yaml:"max_confidence"`
	CorroborationBonus    float64 `mapstructure:"corroboration_bonus" yaml:"corroboration_bonus"`
	NoMatchConfidence     float64 `mapstructure:"no_match_confidence" yaml:"no_match_confidence"`
}

// DefaultClassification returns the classification constants with their
// default values.
func DefaultClassification() Classification {
	return Classification{
		RuleConfidenceFloor:   0.7,
		RuleCandidateLimit:    20,
		SimilarityThreshold:   0.80,
		HistoryWindow:         1000,
		MinKeywordLength:      3,
		PositionalBonusWindow: 10,
		PositionalBonus:       2,
		BaseConfidence:        0.5,
		CountScale:            100,
		MaxConfidence:         0.95,
		CorroborationBonus:    0.10,
		NoMatchConfidence:     0.3,
	}
}

// InitializeConfig loads configuration from the default locations.
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration with hierarchical precedence: defaults, then the
// config file (configFile when set, otherwise config.yaml from the search
// path), then TXLEDGER_ environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.txledger")
		v.AddConfigPath(".txledger")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// API key is read from the conventional, unprefixed variable as well
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ai.api_key: %w", err)
	}
	if err := v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database.dsn: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:txledger.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_seconds", 10)

	v.SetDefault("lexicon.file", "")

	c := DefaultClassification()
	v.SetDefault("classification.rule_confidence_floor", c.RuleConfidenceFloor)
	v.SetDefault("classification.rule_candidate_limit", c.RuleCandidateLimit)
	v.SetDefault("classification.similarity_threshold", c.SimilarityThreshold)
	v.SetDefault("classification.history_window", c.HistoryWindow)
	v.SetDefault("classification.min_keyword_length", c.MinKeywordLength)
	v.SetDefault("classification.positional_bonus_window", c.PositionalBonusWindow)
	v.SetDefault("classification.positional_bonus", c.PositionalBonus)
	v.SetDefault("classification.base_confidence", c.BaseConfidence)
	v.SetDefault("classification.count_scale", c.CountScale)
	v.SetDefault("classification.max_confidence", c.MaxConfidence)
	v.SetDefault("classification.corroboration_bonus", c.CorroborationBonus)
	v.SetDefault("classification.no_match_confidence", c.NoMatchConfidence)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("import.csv_delimiter", "") // sniffed from the header
	v.SetDefault("import.organization_id", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'mysql' or 'sqlite', got: %s", config.Database.Driver)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", config.Server.Port)
	}

	if utf8.RuneCountInString(config.Import.CSVDelimiter) > 1 {
		return fmt.Errorf("import.csv_delimiter must be a single character or empty, got: %s", config.Import.CSVDelimiter)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	return config.Classification.Validate()
}

// Validate checks that every classification constant is in range.
func (c Classification) Validate() error {
	unit := map[string]float64{
		"rule_confidence_floor": c.RuleConfidenceFloor,
		"similarity_threshold":  c.SimilarityThreshold,
		"base_confidence":       c.BaseConfidence,
		"max_confidence":        c.MaxConfidence,
		"corroboration_bonus":   c.CorroborationBonus,
		"no_match_confidence":   c.NoMatchConfidence,
	}
	for key, value := range unit {
		if value < 0.0 || value > 1.0 {
			return fmt.Errorf("classification.%s must be between 0.0 and 1.0, got: %f", key, value)
		}
	}
	if c.RuleCandidateLimit < 1 {
		return fmt.Errorf("classification.rule_candidate_limit must be positive, got: %d", c.RuleCandidateLimit)
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("classification.history_window must be positive, got: %d", c.HistoryWindow)
	}
	if c.MinKeywordLength < 1 {
		return fmt.Errorf("classification.min_keyword_length must be positive, got: %d", c.MinKeywordLength)
	}
	if c.CountScale <= 0 {
		return fmt.Errorf("classification.count_scale must be positive, got: %f", c.CountScale)
	}
	if c.PositionalBonus < 1 {
		return fmt.Errorf("classification.positional_bonus must be at least 1, got: %f", c.PositionalBonus)
	}
	if c.BaseConfidence > c.MaxConfidence {
		return fmt.Errorf("classification.base_confidence (%f) exceeds max_confidence (%f)", c.BaseConfidence, c.MaxConfidence)
	}
	return nil
}
