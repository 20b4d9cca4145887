package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"medprice-backend/lib/configutil"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var (
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
)

// InitSlog installs a text slog handler on stderr as the default logger.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// SetupFromEnv searches up the filesystem from the cwd for a telemetry.json5
// and sets up OTLP export with it. os.ErrNotExist is returned if there is none.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	cfg, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, cfg)
}

// Setup installs global trace and metric providers exporting over OTLP.
func Setup(ctx context.Context, serviceName string, cfg Config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	if cfg.Otlp.Traces.enabled() {
		tracerProvider, err = newTraceProvider(ctx, r, cfg.Otlp.Traces)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tracerProvider)
	}

	if cfg.Otlp.Metrics.enabled() {
		meterProvider, err = newMetricProvider(ctx, r, cfg.Otlp.Metrics, cfg.Otlp.MetricInterval)
		if err != nil {
			return err
		}
		otel.SetMeterProvider(meterProvider)
	}

	return nil
}

// Shutdown flushes and stops whatever providers Setup installed.
func Shutdown(ctx context.Context) error {
	var errs []error
	if tracerProvider != nil {
		errs = append(errs, tracerProvider.Shutdown(ctx))
	}
	if meterProvider != nil {
		errs = append(errs, meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}
