// Package config loads the engine's environment-driven configuration:
// the provider gateway's credentials, default sampling parameters, and
// the concurrency/timeout knobs §5 calls out as implementation details.
// It follows the teacher stack's env-first convention — sensible
// defaults, no required external config file — with an optional .env
// and an optional YAML role-roster file layered on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI entrypoint needs to wire a provider
// and run a deliberation.
type Config struct {
	OpenRouterAPIKey string
	OpenRouterURL    string

	RequestTimeout      time.Duration
	DeliberationTimeout time.Duration
	MaxInFlight         int

	DefaultTemperature float64
	DefaultMaxTokens    int
}

// Load reads configuration from the process environment, first loading a
// local .env file if one is present (godotenv.Load is a no-op error when
// the file is absent — that is not treated as fatal).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenRouterAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterURL:        getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		RequestTimeout:       getDurationOrDefault("COUNCIL_REQUEST_TIMEOUT", 120*time.Second),
		DeliberationTimeout:  getDurationOrDefault("COUNCIL_DELIBERATION_TIMEOUT", 10*time.Minute),
		MaxInFlight:          getIntOrDefault("COUNCIL_MAX_IN_FLIGHT", 32),
		DefaultTemperature:   getFloatOrDefault("COUNCIL_DEFAULT_TEMPERATURE", 0.7),
		DefaultMaxTokens:     getIntOrDefault("COUNCIL_DEFAULT_MAX_TOKENS", 4096),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// RoleSpec is one entry in a YAML role-roster file.
type RoleSpec struct {
	Name         string  `yaml:"name"`
	SystemPrompt string  `yaml:"system_prompt"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	Weight       float64 `yaml:"weight"`
}

// Roster is a YAML-defined set of roles plus the chairman model — the
// natural file-backed counterpart to passing roles inline on a CLI
// invocation.
type Roster struct {
	Roles         []RoleSpec `yaml:"roles"`
	ChairmanModel string     `yaml:"chairman_model"`
}

// LoadRoster reads and parses a YAML role-roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %q: %w", path, err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %q: %w", path, err)
	}
	if len(roster.Roles) == 0 {
		return nil, fmt.Errorf("roster file %q defines no roles", path)
	}
	return &roster, nil
}
