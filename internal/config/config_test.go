package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_DefaultsAndYAML(t *testing.T) {
	p := writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: s3cret
redis:
  url: localhost:6379
data:
  cache_duration: 5m
  sources:
    - name: siswa
      url: https://example.test/siswa.csv
    - url: https://example.test/other.csv
`)
	cfg, err := LoadConfig(p, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Data.CacheDuration != 5*time.Minute {
		t.Fatalf("cache duration = %v", cfg.Data.CacheDuration)
	}
	if cfg.Jobs.TTL != time.Hour {
		t.Fatalf("job ttl default = %v", cfg.Jobs.TTL)
	}
	if cfg.AI.DefaultModel != "gemini-2.5-flash" {
		t.Fatalf("default model = %q", cfg.AI.DefaultModel)
	}
	if got := cfg.Data.Sources[0].Name; got != "SISWA" {
		t.Fatalf("source name should be upper-cased, got %q", got)
	}
	if got := cfg.Data.Sources[1].Name; got != "DATA_2" {
		t.Fatalf("unnamed source should become DATA_2, got %q", got)
	}
	if cfg.Dispatch.Mode != "local" {
		t.Fatalf("dispatch mode default = %q", cfg.Dispatch.Mode)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("GEMINI_API_KEYS", " k1, k2 ,,k3 ")
	t.Setenv("ORGANIZATION_DATA_SOURCES", "https://a.test/1.csv,https://a.test/2.csv")
	t.Setenv("SHEET_NAMES", "siswa")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.AI.Keys) != 3 || cfg.AI.Keys[1] != "k2" {
		t.Fatalf("keys = %#v", cfg.AI.Keys)
	}
	if len(cfg.Data.Sources) != 2 {
		t.Fatalf("sources = %#v", cfg.Data.Sources)
	}
	if cfg.Data.Sources[0].Name != "SISWA" || cfg.Data.Sources[1].Name != "DATA_2" {
		t.Fatalf("paired names = %#v", cfg.Data.Sources)
	}
	if len(cfg.Runtime.Warnings) == 0 {
		t.Fatalf("expected a warning for the missing config file")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("jwt secret required outside dev", func(t *testing.T) {
		p := writeConfig(t, "redis:\n  url: localhost:6379\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatalf("expected error without jwt secret")
		}
	})
	t.Run("dev falls back to insecure secret and memory store", func(t *testing.T) {
		p := writeConfig(t, "{}\n")
		cfg, err := LoadConfig(p, true)
		if err != nil {
			t.Fatalf("LoadConfig dev: %v", err)
		}
		if cfg.Auth.JWTSecret == "" {
			t.Fatalf("dev mode should set a secret")
		}
	})
	t.Run("http dispatch needs base url and secret", func(t *testing.T) {
		p := writeConfig(t, "auth:\n  jwt_secret: x\nredis:\n  url: r:6379\ndispatch:\n  mode: http\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatalf("expected error for incomplete http dispatch")
		}
	})
	t.Run("unknown dispatch mode", func(t *testing.T) {
		p := writeConfig(t, "auth:\n  jwt_secret: x\nredis:\n  url: r:6379\ndispatch:\n  mode: carrier-pigeon\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatalf("expected error for unknown mode")
		}
	})
}

func TestModelAllowed(t *testing.T) {
	ai := AIConfig{AllowedModels: []string{"gemini-2.5-flash"}}
	if !ai.ModelAllowed("") || !ai.ModelAllowed("gemini-2.5-flash") {
		t.Fatalf("expected default and listed model to be allowed")
	}
	if ai.ModelAllowed("gpt-4o") {
		t.Fatalf("unlisted model must be rejected")
	}
}
