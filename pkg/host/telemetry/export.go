package telemetry

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/justyntemme/vfxgo/pkg/config"
)

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(ctx context.Context) error

// SetupStdout installs global providers that write spans and metrics to w
// as the configuration enables them. The returned Config points at them.
func SetupStdout(w io.Writer, tc config.Telemetry) (Config, ShutdownFunc, error) {
	cfg := DefaultConfig()
	cfg.EnableTracing, cfg.EnableMetrics = tc.Traces, tc.Metrics
	var shutdowns []func(context.Context) error

	if tc.Traces {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return cfg, nil, err
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		cfg.TracerProvider = tp
		shutdowns = append(shutdowns, tp.Shutdown)
	}
	if tc.Metrics {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return cfg, nil, err
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		otel.SetMeterProvider(mp)
		cfg.MeterProvider = mp
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}
	return cfg, shutdown, nil
}
