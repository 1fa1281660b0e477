package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/fedexcsp/internal/server"
	"github.com/tournevent/fedexcsp/internal/telemetry"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "fedexcsp",
	Short:   "FedEx CSP Bridge - registration, rating and tracking over the FedEx Compatible Solutions Program XML services",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP bridge server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	client, err := initCarrierClient(cfg, logger, tracer)
	if err != nil {
		return fmt.Errorf("initializing FedEx client: %w", err)
	}

	logger.Info("Starting FedEx CSP Bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("test", cfg.FedExTest),
	)

	srv := server.New(server.Config{Port: cfg.Port}, client, logger, telemetry.NewMetrics())
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
