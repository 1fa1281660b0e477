package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// FedEx CSP credentials. End-user credentials (key/password plus
	// account/meter) authenticate normal operations; the CSP pair alone
	// is enough to register new users.
	FedExAccount     string `envconfig:"FEDEX_ACCOUNT"`
	FedExLogin       string `envconfig:"FEDEX_LOGIN"`
	FedExKey         string `envconfig:"FEDEX_KEY"`
	FedExPassword    string `envconfig:"FEDEX_PASSWORD"`
	FedExCSPKey      string `envconfig:"FEDEX_CSP_KEY"`
	FedExCSPPassword string `envconfig:"FEDEX_CSP_PASSWORD"`

	// FedEx CSP client identity
	FedExSolutionID     string `envconfig:"FEDEX_CSP_SOLUTION_ID"`
	FedExProductID      string `envconfig:"FEDEX_CLIENT_PRODUCT_ID"`
	FedExProductVersion string `envconfig:"FEDEX_CLIENT_PRODUCT_VERSION"`
	FedExClientRegion   string `envconfig:"FEDEX_CLIENT_REGION" default:"US"`

	// FedEx CSP gateways
	FedExGatewayURL     string `envconfig:"FEDEX_GATEWAY_URL" default:"https://gateway.fedex.com/GatewayDC"`
	FedExTestGatewayURL string `envconfig:"FEDEX_TEST_GATEWAY_URL" default:"https://gatewaybeta.fedex.com/GatewayDC"`
	FedExTest           bool   `envconfig:"FEDEX_TEST" default:"false"`
	FedExUseMock        bool   `envconfig:"FEDEX_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"fedexcsp-bridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("fedex.test", c.FedExTest),
		attribute.Bool("fedex.use_mock", c.FedExUseMock),
	}
}
