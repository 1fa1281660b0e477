package main

import (
	"context"

	"github.com/tournevent/fedexcsp/internal/config"
	"github.com/tournevent/fedexcsp/internal/telemetry"
	"github.com/tournevent/fedexcsp/pkg/shipping/fedexcsp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initCarrierClient(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*fedexcsp.Client, error) {
	return fedexcsp.New(fedexcsp.Config{
		Credentials: fedexcsp.Credentials{
			Account:              cfg.FedExAccount,
			Login:                cfg.FedExLogin,
			Key:                  cfg.FedExKey,
			Password:             cfg.FedExPassword,
			CSPKey:               cfg.FedExCSPKey,
			CSPPassword:          cfg.FedExCSPPassword,
			CSPSolutionID:        cfg.FedExSolutionID,
			ClientProductID:      cfg.FedExProductID,
			ClientProductVersion: cfg.FedExProductVersion,
			ClientRegion:         cfg.FedExClientRegion,
		},
		GatewayURL:     cfg.FedExGatewayURL,
		TestGatewayURL: cfg.FedExTestGatewayURL,
		Test:           cfg.FedExTest,
		UseMock:        cfg.FedExUseMock,
	}, logger, tracer)
}
