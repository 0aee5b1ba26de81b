// Package config loads the application configuration from defaults, an optional config file, an
// optional secrets file, a .env file and the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "REVFORECAST"

	// CredentialEnv is the environment variable holding the chat completion API key
	CredentialEnv = "GROQ_API_KEY"

	DefaultEnvFile     = ".env"
	DefaultSecretsFile = "secrets.toml"
)

// MissingCredentialError is returned when no chat completion API key could be found. It halts
// startup before anything is served.
type MissingCredentialError struct {
	Sources []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing commentary API key, set one of %s", strings.Join(e.Sources, ", "))
}

// Config is the application configuration built once at startup and passed down explicitly
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Commentary CommentaryConfig `mapstructure:"commentary"`
	Forecast   ForecastConfig   `mapstructure:"forecast"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" validate:"required"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	// RateLimit is the number of forecast requests per second allowed per client. 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type CommentaryConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Model             string        `mapstructure:"model" validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
}

// LogValue keeps the API key out of the logs
func (c CommentaryConfig) LogValue() slog.Value {
	key := "unset"
	if c.APIKey != "" {
		key = "set"
	}
	return slog.GroupValue(
		slog.String("api_key", key),
		slog.String("base_url", c.BaseURL),
		slog.String("model", c.Model),
		slog.Duration("timeout", c.Timeout),
		slog.Int("requests_per_minute", c.RequestsPerMinute),
	)
}

type ForecastConfig struct {
	DefaultDays   int     `mapstructure:"default_days" validate:"gte=0,ltefield=MaxDays"`
	MaxDays       int     `mapstructure:"max_days" validate:"gt=0"`
	Holidays      string  `mapstructure:"holidays" validate:"omitempty,oneof=US"`
	IntervalWidth float64 `mapstructure:"interval_width" validate:"gt=0,lt=1"`
	// Outliers masks residual outliers and refits before the uncertainty model is fit
	Outliers bool `mapstructure:"outliers"`
}

type IngestConfig struct {
	DateColumn  string `mapstructure:"date_column" validate:"required"`
	ValueColumn string `mapstructure:"value_column" validate:"required"`
	RowPolicy   string `mapstructure:"row_policy" validate:"oneof=drop abort"`
	PreviewRows int    `mapstructure:"preview_rows" validate:"gte=0"`
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an optional yaml/toml/json config file
	ConfigFile string
	// SecretsFile is a toml file holding GROQ_API_KEY. Missing files are ignored.
	SecretsFile string
	// EnvFile is a dotenv file loaded into the environment. Missing files are ignored.
	EnvFile string
	// RequireCredential fails the load with MissingCredentialError when no API key is found
	RequireCredential bool
}

// NewDefaultLoadOptions reads .env and secrets.toml from the working directory and requires the
// commentary credential
func NewDefaultLoadOptions() LoadOptions {
	return LoadOptions{
		SecretsFile:       DefaultSecretsFile,
		EnvFile:           DefaultEnvFile,
		RequireCredential: true,
	}
}

// Load builds the configuration. Precedence from highest to lowest is the environment, the
// config file, the secrets file and the defaults.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to load env file %s, %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("commentary.api_key", EnvPrefix+"_COMMENTARY_API_KEY", CredentialEnv); err != nil {
		return nil, fmt.Errorf("unable to bind credential env, %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file %s, %w", opts.ConfigFile, err)
		}
	}

	if opts.SecretsFile != "" {
		key, err := readSecretsFile(opts.SecretsFile)
		if err != nil {
			return nil, err
		}
		if key != "" {
			v.SetDefault("commentary.api_key", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config, %w", err)
	}

	if opts.RequireCredential && strings.TrimSpace(cfg.Commentary.APIKey) == "" {
		return nil, &MissingCredentialError{
			Sources: []string{CredentialEnv, EnvPrefix + "_COMMENTARY_API_KEY", opts.SecretsFile},
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readSecretsFile(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	sv := viper.New()
	sv.SetConfigFile(path)
	sv.SetConfigType("toml")
	if err := sv.ReadInConfig(); err != nil {
		return "", fmt.Errorf("unable to read secrets file %s, %w", path, err)
	}
	if key := sv.GetString(CredentialEnv); key != "" {
		return key, nil
	}
	return sv.GetString("commentary.api_key"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.rate_limit", 2.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("commentary.api_key", "")
	v.SetDefault("commentary.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("commentary.model", "llama3-8b-8192")
	v.SetDefault("commentary.timeout", 60*time.Second)
	v.SetDefault("commentary.requests_per_minute", 30)

	v.SetDefault("forecast.default_days", 180)
	v.SetDefault("forecast.max_days", 720)
	v.SetDefault("forecast.holidays", "")
	v.SetDefault("forecast.interval_width", 0.8)
	v.SetDefault("forecast.outliers", false)

	ingestOpt := ingest.NewDefaultOptions()
	v.SetDefault("ingest.date_column", ingestOpt.DateColumn)
	v.SetDefault("ingest.value_column", ingestOpt.ValueColumn)
	v.SetDefault("ingest.row_policy", ingestOpt.RowPolicy)
	v.SetDefault("ingest.preview_rows", ingestOpt.PreviewRows)
}

// Validate checks the configuration values against their struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}
	return nil
}
