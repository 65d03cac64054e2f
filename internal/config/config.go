// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"school-assistant/internal/domain/model"
)

type RuntimeConfig struct {
	Dev      bool
	Warnings []string
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"` // public origin used by the http dispatcher
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string `yaml:"url"` // host:port; empty selects the in-memory store (dev only)
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	Keys            []string `yaml:"keys"`
	GeminiURL       string   `yaml:"gemini_url"`
	DefaultModel    string   `yaml:"default_model"`
	AllowedModels   []string `yaml:"allowed_models"`
	ConcurrentLimit int      `yaml:"concurrent_limit"` // max concurrent AI calls
}

type DataConfig struct {
	Sources       []model.DataSource `yaml:"sources"`
	Relationships string             `yaml:"relationships"` // "SISWA.NISN=PRESENSI SHALAT.NISN, ..."
	CacheDuration time.Duration      `yaml:"cache_duration"`
	SampleRows    int                `yaml:"sample_rows"`   // random rows added to the planner's schema context
	WarmInterval  time.Duration      `yaml:"warm_interval"` // 0 disables background refresh
}

type JobsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	Workers         int           `yaml:"workers"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	PlanTimeout     time.Duration `yaml:"plan_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	SubmitLimit     int           `yaml:"submit_limit"` // submissions per user per window, 0 disables
	SubmitWindow    time.Duration `yaml:"submit_window"`
}

type DispatchConfig struct {
	Mode           string `yaml:"mode"` // local | http | redis
	InternalSecret string `yaml:"internal_secret"`
	Stream         string `yaml:"stream"`
	Group          string `yaml:"group"`
	Consumer       string `yaml:"consumer"`
}

type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	AdminPassword      string        `yaml:"admin_password"`
	CookieDomain       string        `yaml:"cookie_domain"`
	SecureCookie       bool          `yaml:"secure_cookie"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	GoogleClientID     string        `yaml:"google_client_id"`
	GoogleClientSecret string        `yaml:"google_client_secret"`
	WorkspaceDomain    string        `yaml:"workspace_domain"`
}

type SchoolConfig struct {
	NameFull   string `yaml:"name_full"`
	NameShort  string `yaml:"name_short"`
	AppVersion string `yaml:"app_version"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Data     DataConfig     `yaml:"data"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Auth     AuthConfig     `yaml:"auth"`
	School   SchoolConfig   `yaml:"school"`

	Runtime RuntimeConfig `yaml:"-"`
}

const devJWTSecret = "dev-only-insecure-jwt-secret"

// LoadConfig reads the YAML file at path (a missing file is allowed; the
// environment may carry everything), applies environment overrides and defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			cfg.Runtime.Warnings = append(cfg.Runtime.Warnings, fmt.Sprintf("config file %s not found; using environment only", path))
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.Runtime.Dev = dev

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if keys := splitList(os.Getenv("GEMINI_API_KEYS")); len(keys) > 0 {
		cfg.AI.Keys = keys
	}
	if urls := splitList(os.Getenv("ORGANIZATION_DATA_SOURCES")); len(urls) > 0 {
		cfg.Data.Sources = PairSources(urls, splitList(os.Getenv("SHEET_NAMES")))
	}
	setString(&cfg.Data.Relationships, "SHEET_RELATIONSHIPS")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.Auth.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Auth.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Auth.WorkspaceDomain, "GOOGLE_WORKSPACE_DOMAIN")
	setString(&cfg.Dispatch.InternalSecret, "INTERNAL_API_SECRET")
	setString(&cfg.Server.BaseURL, "APP_BASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.School.NameFull, "SCHOOL_NAME_FULL")
	setString(&cfg.School.NameShort, "SCHOOL_NAME_SHORT")
	setString(&cfg.School.AppVersion, "APP_VERSION")
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.5-flash"
	}
	if len(cfg.AI.AllowedModels) == 0 {
		cfg.AI.AllowedModels = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash"}
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	for i := range cfg.Data.Sources {
		cfg.Data.Sources[i].Name = strings.ToUpper(strings.TrimSpace(cfg.Data.Sources[i].Name))
		if cfg.Data.Sources[i].Name == "" {
			cfg.Data.Sources[i].Name = fmt.Sprintf("DATA_%d", i+1)
		}
	}
	if cfg.Data.CacheDuration <= 0 {
		cfg.Data.CacheDuration = 10 * time.Minute
	}
	if cfg.Jobs.TTL <= 0 {
		cfg.Jobs.TTL = time.Hour
	}
	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 8
	}
	if cfg.Jobs.FetchTimeout <= 0 {
		cfg.Jobs.FetchTimeout = 30 * time.Second
	}
	if cfg.Jobs.PlanTimeout <= 0 {
		cfg.Jobs.PlanTimeout = time.Minute
	}
	if cfg.Jobs.GenerateTimeout <= 0 {
		cfg.Jobs.GenerateTimeout = 2 * time.Minute
	}
	if cfg.Jobs.JobTimeout <= 0 {
		cfg.Jobs.JobTimeout = 5 * time.Minute
	}
	if cfg.Jobs.SubmitWindow <= 0 {
		cfg.Jobs.SubmitWindow = time.Minute
	}
	cfg.Dispatch.Mode = strings.ToLower(strings.TrimSpace(cfg.Dispatch.Mode))
	if cfg.Dispatch.Mode == "" {
		cfg.Dispatch.Mode = "local"
	}
	if cfg.Dispatch.Stream == "" {
		cfg.Dispatch.Stream = "chat_jobs"
	}
	if cfg.Dispatch.Group == "" {
		cfg.Dispatch.Group = "chat_workers"
	}
	if cfg.Dispatch.Consumer == "" {
		host, _ := os.Hostname()
		cfg.Dispatch.Consumer = "app-" + host
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Auth.JWTSecret == "" && cfg.Runtime.Dev {
		cfg.Auth.JWTSecret = devJWTSecret
		cfg.Runtime.Warnings = append(cfg.Runtime.Warnings, "JWT_SECRET not set; using dev secret (INSECURE)")
	}
}

// Minimal validation: only what the server cannot start without. Missing AI
// keys or data sources surface later as failed jobs.
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Dispatch.Mode {
	case "local":
	case "http":
		if c.Server.BaseURL == "" {
			return errors.New("dispatch.mode=http requires server.base_url (APP_BASE_URL)")
		}
		if c.Dispatch.InternalSecret == "" {
			return errors.New("dispatch.mode=http requires dispatch.internal_secret (INTERNAL_API_SECRET)")
		}
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("dispatch.mode=redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown dispatch.mode %q", c.Dispatch.Mode)
	}
	if c.Redis.URL == "" && !c.Runtime.Dev {
		return errors.New("redis.url (REDIS_URL) is required outside dev mode")
	}
	return nil
}

// ModelAllowed reports whether name may be requested by a client. An empty
// name selects the default model and is always allowed.
func (c *AIConfig) ModelAllowed(name string) bool {
	if name == "" {
		return true
	}
	for _, m := range c.AllowedModels {
		if m == name {
			return true
		}
	}
	return false
}

// PairSources pairs URLs with names by position; names are upper-cased and
// missing ones become DATA_<n>.
func PairSources(urls, names []string) []model.DataSource {
	out := make([]model.DataSource, 0, len(urls))
	for i, u := range urls {
		name := fmt.Sprintf("DATA_%d", i+1)
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = strings.ToUpper(strings.TrimSpace(names[i]))
		}
		out = append(out, model.DataSource{Name: name, URL: u})
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}
