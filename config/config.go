// Package config loads client settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mcosta74/opstack/middleware"
)

// EnvPrefix prefixes every environment variable read by [Load]. Nested keys
// are separated by a double underscore: OPSTACK_ENDPOINT__HOST sets endpoint.host.
const EnvPrefix = "OPSTACK_"

// Transport kinds.
const (
	TransportHTTP      = "http"
	TransportNATS      = "nats"
	TransportWebSocket = "websocket"
)

// Config holds the settings of a generated client and of the sample service.
type Config struct {
	Endpoint    EndpointConfig    `koanf:"endpoint"`
	Timeout     time.Duration     `koanf:"timeout"`
	LogMode     string            `koanf:"log_mode"`
	LogLevel    string            `koanf:"log_level"`
	MaxAttempts int               `koanf:"max_attempts"`
	Transport   string            `koanf:"transport"`
	NATS        NATSConfig        `koanf:"nats"`
	WebSocket   WebSocketConfig   `koanf:"websocket"`
	Compression CompressionConfig `koanf:"compression"`
	Signing     SigningConfig     `koanf:"signing"`
	Server      ServerConfig      `koanf:"server"`
}

type EndpointConfig struct {
	Scheme string `koanf:"scheme"`
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
}

type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
	NKeySeed      string `koanf:"nkey_seed"`
}

type WebSocketConfig struct {
	URL string `koanf:"url"`
}

type CompressionConfig struct {
	Enabled   bool `koanf:"enabled"`
	Threshold int  `koanf:"threshold"`
}

// SigningConfig enables request signing with an nkey seed.
type SigningConfig struct {
	Seed string `koanf:"seed"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

var defaults = map[string]any{
	"endpoint.scheme":       "http",
	"endpoint.host":         "localhost",
	"endpoint.port":         8080,
	"timeout":               "10s",
	"log_mode":              "none",
	"log_level":             "debug",
	"max_attempts":          3,
	"transport":             TransportHTTP,
	"nats.url":              "nats://127.0.0.1:4222",
	"nats.subject_prefix":   "widgets",
	"compression.threshold": 10240,
	"server.addr":           ":8080",
}

// Load reads path, when it exists, then the environment. Environment values
// win over the file; unset keys get their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportNATS, TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Transport == TransportWebSocket && c.WebSocket.URL == "" {
		return errors.New("websocket transport requires websocket.url")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if _, err := c.ClientLogMode(); err != nil {
		return err
	}
	return nil
}

// ClientLogMode parses LogMode.
func (c *Config) ClientLogMode() (middleware.ClientLogMode, error) {
	return middleware.ParseClientLogMode(c.LogMode)
}
