// Package cliconfig loads configuration for the sjson command.
//
// Sources are applied in order, each overriding the previous one:
// built-in defaults, the YAML file, SJSON_* environment variables. Command
// line flags are applied last by the command itself.
package cliconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/sjson/sjson"
)

// EnvPath names the variable consulted when no file is given explicitly.
const EnvPath = "SJSON_CONFIG"

// Config is the full command configuration.
type Config struct {
	Format sjson.Config `yaml:"format"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"SJSON_LOG_LEVEL"`

	// Compression of input files: "none", "zstd" or "auto" (by extension
	// and magic number).
	Compression string `yaml:"compression" env:"SJSON_COMPRESSION"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format:      sjson.DefaultConfig(),
		LogLevel:    "info",
		Compression: "auto",
	}
}

// Load builds the configuration from path (or $SJSON_CONFIG when path is
// empty) and the environment. A missing file is only an error when the path
// was given.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML merges a YAML document into c. Unknown keys are rejected.
func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Compression {
	case "none", "zstd", "auto":
	default:
		return fmt.Errorf("invalid compression %q: want none, zstd or auto", c.Compression)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
