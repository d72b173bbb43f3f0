package observability

import (
	"go.uber.org/fx"

	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/metrics"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/tracing"
)

// Module wires tracing and metrics from the process config.
var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      cfg.ServiceName,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(metrics.ReconcileWithConfig),
	fx.Provide(metrics.HTTPWithConfig),
	fx.Invoke(tracing.NewProvider),
)
