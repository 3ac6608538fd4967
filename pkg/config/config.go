package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/assistgate/assistgate/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all assistgate configuration.
type Config struct {
	Listen    string             `yaml:"listen"`
	Upstream  UpstreamConfig     `yaml:"upstream"`
	Auth      AuthConfig         `yaml:"auth"`
	CORS      CORSConfig         `yaml:"cors"`
	HostCache HostCacheConfig    `yaml:"host_cache"`
	Audit     models.AuditConfig `yaml:"audit"`
	Telemetry TelemetryConfig    `yaml:"telemetry"`
}

// UpstreamConfig describes the vector-assistant platform the proxy fronts.
type UpstreamConfig struct {
	APIKey          string        `yaml:"api_key"`
	APIVersion      string        `yaml:"api_version"`
	ControlPlaneURL string        `yaml:"control_plane_url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
}

// AuthConfig controls inbound authentication. When BearerToken is empty the
// proxy accepts unauthenticated requests.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// CORSConfig controls cross-origin headers. Origins is comma-separated; the
// first entry is used when a request's Origin is not in the list.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
}

// Origins splits the configured origin list, trimming whitespace.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// HostCacheConfig controls the assistant host cache.
type HostCacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// TelemetryConfig controls the Prometheus /metrics endpoint.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Upstream: UpstreamConfig{
			APIVersion:      "2025-01",
			ControlPlaneURL: "https://api.pinecone.io",
			Timeout:         60 * time.Second,
			MaxRetries:      2,
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
		HostCache: HostCacheConfig{
			TTL: 5 * time.Minute,
		},
		Audit: models.AuditConfig{
			DBPath:        "assistgate.db",
			RetentionDays: 30,
			Include:       []string{"requests"},
			MaxBodySize:   8192,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream.api_key is required")
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must not be negative")
	}
	return nil
}
