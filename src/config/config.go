// Package config provides configuration management for xcreport.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"xcreport/src/contracts"
)

// Environment variables read by LoadFromEnv.
const (
	EnvBrokers       = "XCREPORT_BROKERS"
	EnvPostgresDSN   = "XCREPORT_POSTGRES_DSN"
	EnvMetricsAddr   = "XCREPORT_METRICS_ADDR"
	EnvCodec         = "XCREPORT_CODEC"
	EnvConsumerGroup = "XCREPORT_CONSUMER_GROUP"
	EnvNoColor       = "XCREPORT_NO_COLOR"
	EnvDebug         = "XCREPORT_DEBUG"
	EnvRunTTL        = "XCREPORT_RUN_TTL"

	// CI tokens keep the names the CI tools themselves use.
	EnvBuildkiteToken = "BUILDKITE_API_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
)

// DefaultRunTTL is the ingest agent's idle limit for incomplete runs.
const DefaultRunTTL = 30 * time.Minute

// DefaultConsumerGroup is used by the ingest agent when none is configured.
const DefaultConsumerGroup = "xcreport-ingest"

// Config holds the application configuration.
type Config struct {
	// RedpandaBrokers lists seed brokers. Empty means the in-memory broker.
	RedpandaBrokers []string `toml:"brokers"`
	// PostgresDSN selects the Postgres report store. Empty means the in-memory store.
	PostgresDSN string `toml:"postgres_dsn"`
	// MetricsAddr is the listen address of the /metrics endpoint. Empty disables it.
	MetricsAddr string `toml:"metrics_addr"`
	// Codec is the broker payload encoding: "json" or "msgpack".
	Codec         string `toml:"codec"`
	ConsumerGroup string `toml:"consumer_group"`
	NoColor       bool   `toml:"no_color"`
	Debug         bool   `toml:"debug"`
	// RunTTL is how long the ingest agent keeps a run that stopped receiving chunks.
	RunTTL time.Duration `toml:"run_ttl"`

	BuildkiteToken string `toml:"buildkite_token"`
	GitHubToken    string `toml:"github_token"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Codec:         "json",
		ConsumerGroup: DefaultConsumerGroup,
		RunTTL:        DefaultRunTTL,
	}
}

// LoadFromEnv loads configuration from a .env file in the working directory, if any,
// and from XCREPORT_* environment variables.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from the environment and overlays the keys defined in
// the TOML file at path.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, &UserError{
			Message: "Invalid configuration file",
			Hint:    "Check the TOML syntax of " + path,
			Err:     fmt.Errorf("%s: failed to parse TOML: %w", path, err),
		}
	}
	if meta.IsDefined("brokers") {
		cfg.RedpandaBrokers = file.RedpandaBrokers
	}
	if meta.IsDefined("postgres_dsn") {
		cfg.PostgresDSN = file.PostgresDSN
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = file.MetricsAddr
	}
	if meta.IsDefined("codec") {
		cfg.Codec = file.Codec
	}
	if meta.IsDefined("consumer_group") {
		cfg.ConsumerGroup = file.ConsumerGroup
	}
	if meta.IsDefined("no_color") {
		cfg.NoColor = file.NoColor
	}
	if meta.IsDefined("run_ttl") {
		cfg.RunTTL = file.RunTTL
	}
	if meta.IsDefined("debug") {
		cfg.Debug = file.Debug
	}
	if meta.IsDefined("buildkite_token") {
		cfg.BuildkiteToken = file.BuildkiteToken
	}
	if meta.IsDefined("github_token") {
		cfg.GitHubToken = file.GitHubToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks values that cannot be caught while parsing.
func (c *Config) Validate() error {
	if _, err := contracts.CodecByName(c.Codec); err != nil {
		return &UserError{
			Message: fmt.Sprintf("Unsupported codec %q", c.Codec),
			Hint:    "Set " + EnvCodec + " to json or msgpack.",
			Err:     err,
		}
	}
	if c.RunTTL <= 0 {
		return &UserError{
			Message: "Run TTL must be positive",
			Hint:    "Set " + EnvRunTTL + " to a duration such as 30m.",
		}
	}
	if c.ConsumerGroup == "" {
		return &UserError{
			Message: "Consumer group must not be empty",
			Hint:    "Unset " + EnvConsumerGroup + " to use " + DefaultConsumerGroup + ".",
		}
	}
	return nil
}

// UsesRedpanda reports whether seed brokers are configured.
func (c *Config) UsesRedpanda() bool {
	return len(c.RedpandaBrokers) > 0
}

// UsesPostgres reports whether a Postgres DSN is configured.
func (c *Config) UsesPostgres() bool {
	return c.PostgresDSN != ""
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvBrokers)); v != "" {
		c.RedpandaBrokers = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		c.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMetricsAddr)); v != "" {
		c.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCodec)); v != "" {
		c.Codec = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBuildkiteToken)); v != "" {
		c.BuildkiteToken = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGitHubToken)); v != "" {
		c.GitHubToken = v
	}
	if v, ok := os.LookupEnv(EnvConsumerGroup); ok {
		c.ConsumerGroup = strings.TrimSpace(v)
	}

	if v := strings.TrimSpace(os.Getenv(EnvRunTTL)); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return &UserError{
				Message: fmt.Sprintf("Invalid value for %s", EnvRunTTL),
				Hint:    "Use a duration such as 30m or 2h.",
				Err:     err,
			}
		}
		c.RunTTL = ttl
	}

	var err error
	if c.NoColor, err = envBool(EnvNoColor, c.NoColor); err != nil {
		return err
	}
	if c.Debug, err = envBool(EnvDebug, c.Debug); err != nil {
		return err
	}
	return nil
}

func envBool(name string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &UserError{
			Message: fmt.Sprintf("Invalid value for %s", name),
			Hint:    "Use true or false.",
			Err:     err,
		}
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
