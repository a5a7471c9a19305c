package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agentgap/agentgap/config"
	"github.com/agentgap/agentgap/telemetry"
)

// initTelemetry initializes OTEL when an endpoint is configured. A failed
// init downgrades to running without telemetry rather than aborting the scan.
func initTelemetry(ctx context.Context, cfg *config.Config) func() {
	endpoint := cfg.OTEL.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" && !cfg.OTEL.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "agentgap",
		ServiceVersion: version,
		OTELEndpoint:   endpoint,
		Insecure:       cfg.OTEL.Insecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: telemetry initialization failed: %v\n", err)
		return func() {}
	}

	return func() {
		if err := shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: telemetry shutdown failed: %v\n", err)
		}
	}
}
