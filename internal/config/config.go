// Package config loads YAML configuration for the gosbe binaries,
// generalizing the shape of a trader config loader: one struct per
// concern, a Load that unmarshals, applies field-level defaults to zero
// values, and then validates.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HandlerConfig holds market-data handler settings. They are loaded and
// validated only: marketdata.NewHandler takes no config, and its pending
// cap is the package constant marketdata.MaxPendingPerInstrument.
type HandlerConfig struct {
	MaxPendingPerInstrument int           `yaml:"max_pending_per_instrument"`
	RecoveryTimeout         time.Duration `yaml:"recovery_timeout"`
	StaleTimeout            time.Duration `yaml:"stale_timeout"`
	ArbitratorWindow        int           `yaml:"arbitrator_window"`
}

// ServerConfig configures an HTTP server exposing handler state.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// FeedConfig configures the two A/B feed subjects the feedsim binary
// publishes to.
type FeedConfig struct {
	NATSAddr string `yaml:"nats_addr"`
	SubjectA string `yaml:"subject_a"`
	SubjectB string `yaml:"subject_b"`
}

// LoggingConfig holds logging settings. It is loaded but no binary reads
// it; the binaries log through the standard log package.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
}

// Config is the complete configuration file loaded by the mdserver and
// feedsim binaries.
type Config struct {
	Handler HandlerConfig `yaml:"handler"`
	Server  ServerConfig  `yaml:"server"`
	Feed    FeedConfig    `yaml:"feed"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns a fully-populated configuration suitable for local
// development without a config file.
func Default() Config {
	return Config{
		Handler: HandlerConfig{
			MaxPendingPerInstrument: 10000,
			RecoveryTimeout:         5 * time.Second,
			StaleTimeout:            3 * time.Second,
			ArbitratorWindow:        4096,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Feed: FeedConfig{
			NATSAddr: "nats://127.0.0.1:4222",
			SubjectA: "md.feed.a",
			SubjectB: "md.feed.b",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses a YAML config file, applying defaults to any
// field left at its zero value and validating the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Handler.MaxPendingPerInstrument == 0 {
		c.Handler.MaxPendingPerInstrument = def.Handler.MaxPendingPerInstrument
	}
	if c.Handler.RecoveryTimeout == 0 {
		c.Handler.RecoveryTimeout = def.Handler.RecoveryTimeout
	}
	if c.Handler.StaleTimeout == 0 {
		c.Handler.StaleTimeout = def.Handler.StaleTimeout
	}
	if c.Handler.ArbitratorWindow == 0 {
		c.Handler.ArbitratorWindow = def.Handler.ArbitratorWindow
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Feed.NATSAddr == "" {
		c.Feed.NATSAddr = def.Feed.NATSAddr
	}
	if c.Feed.SubjectA == "" {
		c.Feed.SubjectA = def.Feed.SubjectA
	}
	if c.Feed.SubjectB == "" {
		c.Feed.SubjectB = def.Feed.SubjectB
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// Validate checks field-level invariants not fixable by a default.
func (c *Config) Validate() error {
	if c.Handler.MaxPendingPerInstrument <= 0 {
		return fmt.Errorf("handler.max_pending_per_instrument must be positive")
	}
	if c.Handler.ArbitratorWindow <= 0 {
		return fmt.Errorf("handler.arbitrator_window must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535]")
	}
	if c.Feed.SubjectA == c.Feed.SubjectB {
		return fmt.Errorf("feed.subject_a and feed.subject_b must differ")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
