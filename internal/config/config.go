// Package config loads server and client settings for the httpx
// library's example binaries (cmd/httpxd, cmd/httpxcli). Grounded on
// Howard-nolan-llmrouter/internal/config: koanf file+env layering with
// godotenv loaded first, same "YAML defaults, env overrides" shape.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/andycostintoma/httpx/internal/stream"
)

// envPrefix is the namespace for environment-variable overrides, e.g.
// HTTPX_SERVER_ADDR overrides Server.Addr.
const envPrefix = "HTTPX_"

// Config is the top-level configuration for both example binaries; a
// process typically only reads the half it needs (Server or Client).
type Config struct {
	Server ServerConfig `koanf:"server"`
	Client ClientConfig `koanf:"client"`
}

// ServerConfig holds httpxd's listener and protocol settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// TLSCertFile/TLSKeyFile are loaded from configuration; cmd/httpxd
	// always listens with plain TCP and does not read them.
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
	// HeaderTimeout is loaded from configuration (default 30s). It is not
	// passed to the server: server.Server applies its own HeaderDeadline
	// constant to each request-header read.
	HeaderTimeout time.Duration `koanf:"header_timeout"`
	// Backpressure resolves the Open Question in spec.md §9 for
	// streaming/SSE service channels: "drop" (default) or "suspend".
	Backpressure string `koanf:"backpressure"`
	LogLevel     string `koanf:"log_level"`
}

// ClientConfig holds httpxcli's connection and redirect settings.
type ClientConfig struct {
	AutoRedirect bool          `koanf:"auto_redirect"`
	MaxRedirects int           `koanf:"max_redirects"`
	Timeout      time.Duration `koanf:"timeout"`
	LogLevel     string        `koanf:"log_level"`
}

// defaults mirrors spec.md §6's documented defaults (AutoRedirect=true,
// MaxRedirects=5, TimeoutMs=5000) so Load still returns a usable Config
// when no file is present.
func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			HeaderTimeout: 30 * time.Second,
			Backpressure:  "drop",
			LogLevel:      "info",
		},
		Client: ClientConfig{
			AutoRedirect: true,
			MaxRedirects: 5,
			Timeout:      5 * time.Second,
			LogLevel:     "info",
		},
	}
}

// BackpressurePolicy translates ServerConfig.Backpressure into a
// stream.BackpressurePolicy, defaulting to DropWhenFull for any
// unrecognized value.
func (c ServerConfig) BackpressurePolicy() stream.BackpressurePolicy {
	if strings.EqualFold(c.Backpressure, "suspend") {
		return stream.Suspend
	}
	return stream.DropWhenFull
}

// Load reads configuration from an optional YAML file, layers
// HTTPX_-prefixed environment variable overrides on top, and returns a
// fully populated Config. path may be empty, in which case only
// defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"_", ".",
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Start from documented defaults (spec.md §6); koanf's mapstructure
	// decoder only overwrites fields present in the loaded file/env data,
	// leaving the rest of this pre-populated struct untouched.
	out := defaults()
	if err := k.Unmarshal("", &out); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &out, nil
}
