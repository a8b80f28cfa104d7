// Package observability installs the process-wide slog handler.
//
// Formats: plain text, JSON, or otlp which bridges slog records into the
// OpenTelemetry log pipeline (OTLP over gRPC or HTTP when an endpoint is
// configured, stdout export otherwise).
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "wechat-cli"

// provider holds the OTel logger provider when the otlp format is active, so
// Flush can drain it on exit.
var provider *sdklog.LoggerProvider

// Instrument installs the default slog handler for the given level and
// format (text, json or otlp).
func Instrument(level slog.Level, format string) error {
	switch format {
	case "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	case "otlp":
		exporter, err := newExporter(context.Background())
		if err != nil {
			return fmt.Errorf("creating log exporter: %w", err)
		}

		processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
		provider = sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

		handler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
		slog.SetDefault(slog.New(handler))
	default:
		return fmt.Errorf("unsupported log format: %q", format)
	}

	return nil
}

// Flush drains any buffered log records and shuts the export pipeline down.
// No-op for the text and json formats.
func Flush(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// newExporter picks the OTLP transport from the standard OTel environment
// variables, falling back to stdout when no endpoint is configured.
func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		return stdoutlog.New()
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" {
		return otlploggrpc.New(ctx)
	}
	return otlploghttp.New(ctx)
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
