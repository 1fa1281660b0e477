// Package fedexcsp provides integration with the FedEx Compatible
// Solutions Program (CSP) XML web services: user registration,
// subscription, version capture, rate quoting and shipment tracking.
package fedexcsp

import (
	"context"
	"time"

	"github.com/tournevent/fedexcsp/pkg/shipping"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "FedEx"

// Config holds FedEx CSP configuration.
type Config struct {
	Credentials
	GatewayURL     string
	TestGatewayURL string
	Test           bool
	UseMock        bool
}

// Client is the FedEx CSP carrier client. Its operations are stateless
// transformations around a Transport: build XML, commit, parse XML.
// A Client is safe for concurrent use.
type Client struct {
	config    Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a new FedEx CSP client. The credential set must supply
// either {Login, Password} or {CSPKey, CSPPassword}; anything less is
// a configuration error surfaced here, before any request is built.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	var transport Transport
	if cfg.UseMock {
		transport = NewMockTransport()
	} else {
		transport = NewHTTPTransport(HTTPTransportConfig{
			GatewayURL:     cfg.GatewayURL,
			TestGatewayURL: cfg.TestGatewayURL,
			Timeout:        30 * time.Second,
		})
	}
	return NewWithTransport(cfg, transport, logger, tracer)
}

// NewWithTransport creates a new FedEx CSP client with a custom
// transport.
func NewWithTransport(cfg Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	if !cfg.Credentials.valid() {
		return nil, &shipping.ConfigurationError{
			Carrier: carrierName,
			Reason:  "either login/password or csp_key/csp_password credentials are required",
		}
	}

	return &Client{
		config:    cfg,
		transport: transport,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}, nil
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// RegisterUser registers a new end user with the CSP program and
// returns the issued key/password credential pair.
func (c *Client) RegisterUser(ctx context.Context, p RegistrationParams) (*RegistrationResponse, error) {
	ctx, span := c.startSpan(ctx, "fedexcsp.RegisterUser")
	defer span.End()

	c.logger.Info("Registering FedEx CSP user",
		zap.String("account", p.Account),
		zap.String("region", p.ClientRegion),
	)

	request, err := buildRegistrationRequest(c.config.Credentials, p)
	if err != nil {
		return nil, err
	}

	raw, err := c.transport.Commit(ctx, request, c.testMode(p.Test))
	if err != nil {
		c.logger.Error("FedEx registration failed", zap.Error(err))
		return nil, err
	}

	return parseRegistrationResponse(raw, c.testMode(p.Test))
}

// SubscribeUser subscribes a registered user and returns the meter
// number used as the login on later calls.
func (c *Client) SubscribeUser(ctx context.Context, p SubscriptionParams) (*SubscriptionResponse, error) {
	ctx, span := c.startSpan(ctx, "fedexcsp.SubscribeUser")
	defer span.End()

	c.logger.Info("Subscribing FedEx CSP user",
		zap.String("account", c.config.Account),
	)

	request, err := buildSubscriptionRequest(c.config.Credentials, p)
	if err != nil {
		return nil, err
	}

	raw, err := c.transport.Commit(ctx, request, c.testMode(p.Test))
	if err != nil {
		c.logger.Error("FedEx subscription failed", zap.Error(err))
		return nil, err
	}

	return parseSubscriptionResponse(raw, c.testMode(p.Test))
}

// VersionCapture reports the vendor product platform to the carrier.
// Purely informational; the reply echoes the transaction id.
func (c *Client) VersionCapture(ctx context.Context, transactionID string, p VersionCaptureParams) (*VersionCaptureResponse, error) {
	ctx, span := c.startSpan(ctx, "fedexcsp.VersionCapture")
	defer span.End()

	request, err := buildVersionCaptureRequest(c.config.Credentials, transactionID, p)
	if err != nil {
		return nil, err
	}

	raw, err := c.transport.Commit(ctx, request, c.testMode(p.Test))
	if err != nil {
		c.logger.Error("FedEx version capture failed", zap.Error(err))
		return nil, err
	}

	return parseVersionCaptureResponse(raw, c.testMode(p.Test))
}

// FindRates quotes the available services for a shipment. The packages
// sequence is preserved in each returned rate's per-package breakdown.
func (c *Client) FindRates(ctx context.Context, origin, destination shipping.Location, packages []shipping.Package, p RateParams) (*RateResponse, error) {
	ctx, span := c.startSpan(ctx, "fedexcsp.FindRates")
	defer span.End()

	c.logger.Info("Getting FedEx rates",
		zap.String("origin_postal", origin.PostalCode),
		zap.String("destination_postal", destination.PostalCode),
		zap.Int("package_count", len(packages)),
	)

	shipTime := p.ShipTime
	if shipTime.IsZero() {
		shipTime = c.now()
	}

	request, err := buildRateRequest(c.config.Credentials, origin, destination, packages, shipTime)
	if err != nil {
		return nil, err
	}

	raw, err := c.transport.Commit(ctx, request, c.testMode(p.Test))
	if err != nil {
		c.logger.Error("FedEx rate request failed", zap.Error(err))
		return nil, err
	}

	return parseRateResponse(raw, c.testMode(p.Test), packages)
}

// FindTrackingInfo returns the public event timeline for a tracking
// number: internal carrier events are dropped and the rest are sorted
// ascending by timestamp.
func (c *Client) FindTrackingInfo(ctx context.Context, trackingNumber string, p TrackingParams) (*TrackingResponse, error) {
	ctx, span := c.startSpan(ctx, "fedexcsp.FindTrackingInfo")
	defer span.End()

	c.logger.Info("Tracking FedEx shipment",
		zap.String("tracking_number", trackingNumber),
	)

	request, err := buildTrackingRequest(c.config.Credentials, trackingNumber)
	if err != nil {
		return nil, err
	}

	raw, err := c.transport.Commit(ctx, request, c.testMode(p.Test))
	if err != nil {
		c.logger.Error("FedEx tracking request failed", zap.Error(err))
		return nil, err
	}

	return parseTrackingResponse(raw, c.testMode(p.Test))
}

func (c *Client) testMode(requested bool) bool {
	return requested || c.config.Test
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return c.tracer.Start(ctx, name)
}
