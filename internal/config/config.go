package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Tailscale  TailscaleConfig  `yaml:"tailscale"`
	Auth       AuthConfig       `yaml:"auth"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type LLMConfig struct {
	BaseURL               string `yaml:"base_url"`
	APIKey                string `yaml:"api_key"`
	Model                 string `yaml:"model"`
	FallbackModel         string `yaml:"fallback_model"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// RequestTimeout returns the configured timeout as a duration.
func (l LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(l.RequestTimeoutSeconds) * time.Second
}

// GenerationConfig holds the deterministic-pipeline constants.
type GenerationConfig struct {
	WorkSecondsPer10Reps        int `yaml:"work_seconds_per_10_reps"`
	RestBetweenSetsSeconds      int `yaml:"rest_between_sets_seconds"`
	RestBetweenExercisesSeconds int `yaml:"rest_between_exercises_seconds"`
	WarmupMinutesDefault        int `yaml:"warmup_minutes_default"`
	CooldownMinutesDefault      int `yaml:"cooldown_minutes_default"`
	MinRecoveryHours            int `yaml:"min_recovery_hours"`
	JobMaxAgeHours              int `yaml:"job_max_age_hours"`
	JobGCIntervalMinutes        int `yaml:"job_gc_interval_minutes"`
}

// JobMaxAge returns the job retention window as a duration.
func (g GenerationConfig) JobMaxAge() time.Duration {
	return time.Duration(g.JobMaxAgeHours) * time.Hour
}

// JobGCInterval returns the sweep cadence as a duration.
func (g GenerationConfig) JobGCInterval() time.Duration {
	return time.Duration(g.JobGCIntervalMinutes) * time.Minute
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix LIFTPLAN_ and underscore-separated
// paths:
//
//	LIFTPLAN_SERVER_HOST, LIFTPLAN_SERVER_PORT,
//	LIFTPLAN_DB_HOST, LIFTPLAN_DB_PORT, LIFTPLAN_DB_NAME,
//	LIFTPLAN_DB_USER, LIFTPLAN_DB_PASSWORD, LIFTPLAN_DB_SSLMODE,
//	LIFTPLAN_AUTH_API_KEY, LIFTPLAN_LLM_BASE_URL, LIFTPLAN_LLM_API_KEY,
//	LIFTPLAN_LLM_MODEL
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// defaults seeds the timing constants so a minimal config file still yields
// a working time model.
func defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:                 "llama-3.3-70b-versatile",
			RequestTimeoutSeconds: 60,
		},
		Generation: GenerationConfig{
			WorkSecondsPer10Reps:        60,
			RestBetweenSetsSeconds:      90,
			RestBetweenExercisesSeconds: 60,
			WarmupMinutesDefault:        8,
			CooldownMinutesDefault:      5,
			MinRecoveryHours:            48,
			JobMaxAgeHours:              24,
			JobGCIntervalMinutes:        60,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTPLAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTPLAN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTPLAN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIFTPLAN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIFTPLAN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIFTPLAN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIFTPLAN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIFTPLAN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIFTPLAN_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LIFTPLAN_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LIFTPLAN_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LIFTPLAN_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Generation.WorkSecondsPer10Reps <= 0 {
		return fmt.Errorf("generation.work_seconds_per_10_reps must be positive")
	}
	if c.Generation.MinRecoveryHours < 0 {
		return fmt.Errorf("generation.min_recovery_hours must not be negative")
	}
	return nil
}
