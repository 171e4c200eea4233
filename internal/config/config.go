// Package config loads server settings from .env, an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mindwell/internal/crypto"
)

type Config struct {
	AppEnv           string         `mapstructure:"app_env"`
	Port             string         `mapstructure:"port"`
	DatabaseURL      string         `mapstructure:"database_url"`
	JWTSecret        string         `mapstructure:"jwt_secret"`
	WebhookSecret    string         `mapstructure:"webhook_secret"`
	EncryptionKey    string         `mapstructure:"encryption_key"`
	DefaultTimezone  string         `mapstructure:"default_timezone"`
	CORSAllowOrigins []string       `mapstructure:"cors_allow_origins"`
	Insights         InsightsConfig `mapstructure:"insights"`
	OpenAI           OpenAIConfig   `mapstructure:"openai"`
	Risk             RiskConfig     `mapstructure:"risk"`
}

type InsightsConfig struct {
	Window int `mapstructure:"window"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	BaseURL        string  `mapstructure:"base_url"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type RiskConfig struct {
	SweepSchedule string `mapstructure:"sweep_schedule"`
	SweepBatch    int    `mapstructure:"sweep_batch"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("webhook_secret", "")
	v.SetDefault("encryption_key", "")
	v.SetDefault("default_timezone", "UTC")
	v.SetDefault("cors_allow_origins", []string{"*"})
	v.SetDefault("insights.window", 30)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout_seconds", 20)
	v.SetDefault("risk.sweep_schedule", "@every 5m")
	v.SetDefault("risk.sweep_batch", 100)
}

// Load reads .env when present, then the YAML file at path (skipped when
// path is empty), then the environment. OPENAI_API_KEY maps to openai.api_key.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowOrigins = cleanList(cfg.CORSAllowOrigins)
	return &cfg, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.EncryptionKey != "" {
		if _, err := crypto.ParseKey(c.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("ENCRYPTION_KEY: %w", err))
		}
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}
	if c.Insights.Window <= 0 {
		errs = append(errs, errors.New("insights.window must be positive"))
	}
	if c.Risk.SweepBatch <= 0 {
		errs = append(errs, errors.New("risk.sweep_batch must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "local", "development", "dev":
		return true
	}
	return false
}

// Location falls back to UTC when the configured zone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}
