// Package config provides configuration loading and management for the proxy.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/yourorg/rpc-proxy/internal/netutil"
)

// Config holds all application configuration
type Config struct {
	// Address the HTTP server binds to
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port int    `envconfig:"PORT" default:"3000"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Public address of this instance. Discovered when empty.
	ExternalIP string `envconfig:"EXTERNAL_IP"`

	// Upper bound for a single upstream call
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	// OpenTelemetry endpoint for tracing
	OtelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Upstream credentials. A provider without one is not registered,
	// except Binance which needs none.
	InfuraProjectID  string `envconfig:"INFURA_PROJECT_ID"`
	PoktProjectID    string `envconfig:"POKT_PROJECT_ID"`
	BinanceProjectID string `envconfig:"BINANCE_PROJECT_ID"`
	EnableBinance    bool   `envconfig:"ENABLE_BINANCE" default:"true"`

	// Inbound rate limiting, disabled when RateLimitRPS is 0
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
}

// Load creates a new Config from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot check on its own.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ExternalIP != "" && net.ParseIP(c.ExternalIP) == nil {
		return fmt.Errorf("invalid external ip: %q", c.ExternalIP)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid rate limit: %v", c.RateLimitRPS)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.LogFormat)
	}
	return nil
}

// ListenAddr returns host:port for the HTTP server.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PublicIP returns the configured external IP, or the first public address
// found on the host's network interfaces.
func (c Config) PublicIP() (net.IP, error) {
	if c.ExternalIP != "" {
		return net.ParseIP(c.ExternalIP), nil
	}
	return netutil.FindPublicIP()
}
