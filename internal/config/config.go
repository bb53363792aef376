// Package config holds the configuration of the product API.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer     config.HTTPConfig           `koanf:"server"`
	Log            config.LogConfig            `koanf:"log"`
	PProf          config.PProfConfig          `koanf:"pprof"`
	GRPC           config.GrpcServerConfig     `koanf:"grpc"`
	Shutdown       config.ShutdownConfig       `koanf:"shutdown"`
	Auth           config.AuthConfig           `koanf:"auth"`
	Metrics        config.MetricsConfig        `koanf:"metrics"`
	Telemetry      config.TelemetryConfig      `koanf:"telemetry"`
	NATS           config.NATSConfig           `koanf:"nats"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
	Subscriber     config.SubscriberConfig     `koanf:"subscriber"`
	GRPCClient     config.GrpcClientConfig     `koanf:"grpcclient"`
}

// Defaults returns the built-in configuration, overridden by config.yaml, .env and the environment.
// Keys are lower case to line up with environment variable names.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               3000,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       5 * time.Second,
		"server.timeout.write":      10 * time.Second,
		"server.timeout.idle":       60 * time.Second,
		"server.timeout.readheader": 2 * time.Second,

		"log.level": "info",

		"pprof.enabled": false,
		"pprof.addr":    "localhost:6060",

		"grpc.enabled":    true,
		"grpc.port":       "50051",
		"grpc.reflection": false,

		"shutdown.timeout": 10 * time.Second,

		"auth.header": "X-API-Key",
		"auth.apikey": "secret-api-key",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"telemetry.enabled":                  false,
		"telemetry.traces.otlphttp.timeout":  5 * time.Second,
		"telemetry.traces.otlphttp.insecure": true,

		"nats.enabled": false,
		"nats.url":     "nats://localhost:4222",
		"nats.timeout": 5 * time.Second,
		"nats.stream":  "PRODUCTS",

		"circuitbreaker.consecutivefailures": 5,
		"circuitbreaker.errorratepercent":    50,
		"circuitbreaker.opentimeout":         30 * time.Second,

		"subscriber.subject":  "products.>",
		"subscriber.consumer": "productapi-events",
		"subscriber.batch":    10,
		"subscriber.timeout":  5 * time.Second,
		"subscriber.interval": time.Second,
		"subscriber.workers":  1,

		"grpcclient.addr":                 "localhost:50051",
		"grpcclient.timeout":              2 * time.Second,
		"grpcclient.retry.maxattempts":    3,
		"grpcclient.retry.initialbackoff": 100 * time.Millisecond,
	}
}

// String returns every section of the configuration. The API key is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Auth.String())
	b.WriteString(c.Metrics.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.CircuitBreaker.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.GRPCClient.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	return errors.Join(
		c.HTTPServer.Validate(),
		c.Log.Validate(),
		c.PProf.Validate(),
		c.GRPC.Validate(),
		c.Shutdown.Validate(),
		c.Auth.Validate(),
		c.Metrics.Validate(),
		c.Telemetry.Validate(),
		c.NATS.Validate(),
		c.CircuitBreaker.Validate(),
		c.Subscriber.Validate(),
		c.GRPCClient.Validate(),
	)
}
