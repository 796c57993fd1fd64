// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Advisor AdvisorConfig `mapstructure:"advisor" yaml:"advisor"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Upload  UploadConfig  `mapstructure:"upload" yaml:"upload"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	// Quiet suppresses the console core entirely. The TUI sets this so the
	// alternate screen stays intact; the file core keeps logging.
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`
}

// AdvisorProvider defines the supported external advice service transports.
type AdvisorProvider string

const (
	ProviderAzureOpenAI AdvisorProvider = "azure"
	ProviderGemini      AdvisorProvider = "gemini"
)

// AdvisorConfig is the explicit configuration for the advice service client.
// Credentials, endpoint, deployment and determinism settings are passed into
// the gateway at construction; nothing here is ambient state.
type AdvisorConfig struct {
	Provider   AdvisorProvider `mapstructure:"provider" yaml:"provider"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey     string          `mapstructure:"api_key" yaml:"-"`
	APIVersion string          `mapstructure:"api_version" yaml:"api_version"`
	// Deployment is the Azure deployment name, or the Gemini model id.
	Deployment  string        `mapstructure:"deployment" yaml:"deployment"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// MaxRetryElapsed bounds the exponential backoff across one round trip.
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed" yaml:"max_retry_elapsed"`
}

// SessionConfig tunes the interactive session controller.
type SessionConfig struct {
	// PreviewRows is how many rows the dataset preview exposes to the UI.
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	// MaxUniqueValues caps the unique values included in a standardization
	// profile, matching the prompt-size limit of the advice service.
	MaxUniqueValues int `mapstructure:"max_unique_values" yaml:"max_unique_values"`
}

// UploadConfig tunes dataset ingestion.
type UploadConfig struct {
	// Delimiter forces a field separator; empty means sniff comma/tab/semicolon.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// TypeInferenceRows caps how many rows are scanned for column typing.
	TypeInferenceRows int `mapstructure:"type_inference_rows" yaml:"type_inference_rows"`
}

// SetDefaults initializes default values for the configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scour-cli")
	v.SetDefault("logger.log_file", "scour.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.quiet", false)

	// -- Advisor --
	v.SetDefault("advisor.provider", "azure")
	v.SetDefault("advisor.api_version", "2024-02-15-preview")
	v.SetDefault("advisor.deployment", "gpt-4o-mini")
	v.SetDefault("advisor.api_timeout", "60s")
	v.SetDefault("advisor.temperature", 0.0)
	v.SetDefault("advisor.max_tokens", 1500)
	v.SetDefault("advisor.max_retry_elapsed", "2m")

	// -- Session --
	v.SetDefault("session.preview_rows", 10)
	v.SetDefault("session.max_unique_values", 30)

	// -- Upload --
	v.SetDefault("upload.delimiter", "")
	v.SetDefault("upload.type_inference_rows", 1000)
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("advisor.api_key", "SCOUR_ADVISOR_API_KEY")
	v.BindEnv("advisor.endpoint", "SCOUR_ADVISOR_ENDPOINT")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Advisor.APIKey == "" {
		cfg.Advisor.APIKey = os.Getenv("SCOUR_ADVISOR_API_KEY")
	}
	if cfg.Advisor.Endpoint == "" {
		cfg.Advisor.Endpoint = os.Getenv("SCOUR_ADVISOR_ENDPOINT")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Should not happen with defaults alone.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Advisor.Provider {
	case ProviderAzureOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("advisor.provider must be one of 'azure' or 'gemini', got %q", c.Advisor.Provider)
	}
	if c.Advisor.MaxTokens <= 0 {
		return fmt.Errorf("advisor.max_tokens must be a positive integer")
	}
	if c.Advisor.Temperature < 0 || c.Advisor.Temperature > 2 {
		return fmt.Errorf("advisor.temperature must be between 0.0 and 2.0")
	}
	if c.Session.PreviewRows <= 0 {
		return fmt.Errorf("session.preview_rows must be a positive integer")
	}
	if c.Session.MaxUniqueValues <= 0 {
		return fmt.Errorf("session.max_unique_values must be a positive integer")
	}
	if c.Upload.TypeInferenceRows <= 0 {
		return fmt.Errorf("upload.type_inference_rows must be a positive integer")
	}
	return nil
}
