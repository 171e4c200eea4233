package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "a-sufficiently-long-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Insights.Window != 30 || cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Risk.SweepSchedule != "@every 5m" || cfg.Risk.SweepBatch != 100 {
		t.Errorf("risk defaults = %+v", cfg.Risk)
	}
	if cfg.LLMTimeout() != 20*time.Second {
		t.Errorf("timeout = %v", cfg.LLMTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEnvOverridesNestedKeys(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("INSIGHTS_WINDOW", "14")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai = %+v", cfg.OpenAI)
	}
	if cfg.Insights.Window != 14 {
		t.Errorf("window = %d", cfg.Insights.Window)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://admin.example.com" {
		t.Errorf("origins = %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	body := "port: \"9090\"\ndefault_timezone: Europe/Berlin\nrisk:\n  sweep_schedule: \"*/10 * * * *\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Risk.SweepSchedule != "*/10 * * * *" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:       "a-sufficiently-long-secret",
			DefaultTimezone: "UTC",
			Insights:        InsightsConfig{Window: 30},
			Risk:            RiskConfig{SweepBatch: 10},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"bad key", func(c *Config) { c.EncryptionKey = "bm90LTMyLWJ5dGVz" }, "ENCRYPTION_KEY"},
		{"bad zone", func(c *Config) { c.DefaultTimezone = "Mars/Olympus" }, "DEFAULT_TIMEZONE"},
		{"zero window", func(c *Config) { c.Insights.Window = 0 }, "insights.window"},
		{"zero batch", func(c *Config) { c.Risk.SweepBatch = 0 }, "risk.sweep_batch"},
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	for env, want := range map[string]bool{"local": true, "Development": true, "production": false, "": false} {
		if got := (&Config{AppEnv: env}).IsDevelopment(); got != want {
			t.Errorf("IsDevelopment(%q) = %v", env, got)
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
