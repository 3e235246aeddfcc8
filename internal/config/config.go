package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Exam struct {
		BankID           string `yaml:"bank_id"`
		TimeLimitSeconds int    `yaml:"time_limit_seconds"`
		BankTTL          string `yaml:"bank_ttl"`
		Tick             string `yaml:"tick"`
	} `yaml:"exam"`
}

// DefaultTimeLimitSeconds matches the original exam length (210 minutes).
const DefaultTimeLimitSeconds = 210 * 60

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TimeLimit returns the configured exam length in seconds, or the default.
func (c Config) TimeLimit() int {
	if c.Exam.TimeLimitSeconds > 0 {
		return c.Exam.TimeLimitSeconds
	}
	return DefaultTimeLimitSeconds
}

// TTLDuration parses a duration string or returns the fallback if empty or
// invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
