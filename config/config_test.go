package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Guide.RulesPath != "product.md" {
		t.Errorf("Guide.RulesPath = %q, want product.md", cfg.Guide.RulesPath)
	}
	if cfg.Guide.MaxLocationLength != 100 {
		t.Errorf("Guide.MaxLocationLength = %d, want 100", cfg.Guide.MaxLocationLength)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled should default to true")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("GUIDE_RULES_PATH", "/etc/trafficguide/product.md")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Guide.RulesPath != "/etc/trafficguide/product.md" {
		t.Errorf("Guide.RulesPath = %q", cfg.Guide.RulesPath)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled should be false")
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("DB_MAX_CONNS", "zero")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want default 25", cfg.Database.MaxConns)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty rules path", func(c *Config) { c.Guide.RulesPath = "" }, true},
		{"zero warmup workers", func(c *Config) { c.Guide.WarmupWorkers = 0 }, true},
		{"rate limit zero while enabled", func(c *Config) { c.RateLimit.PerMinute = 0 }, true},
		{"rate limit zero while disabled", func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.PerMinute = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
