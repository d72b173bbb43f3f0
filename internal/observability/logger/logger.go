package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mustafamuse/irshad-center-sub014/internal/config"
)

const requestIDHeader = "X-Request-Id"

// Module wires the zap logger into the fx graph and replaces the global
// logger used by FromContext.
var Module = fx.Module("observability.logger",
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		return New(cfg.Environment)
	}),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		zap.ReplaceGlobals(log)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}),
)

// New builds the process logger: human-readable in development, JSON
// everywhere else.
func New(environment string) (*zap.Logger, error) {
	if strings.EqualFold(strings.TrimSpace(environment), "development") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// FromContext returns the global logger enriched with the active span's
// trace and span ids, so one delivery's log lines correlate across
// components.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}

// MiddlewareConfig tunes the request logging middleware.
type MiddlewareConfig struct {
	// SkipPaths suppresses access logs for noisy endpoints (health,
	// metrics). Request ids are still assigned.
	SkipPaths []string
}

// GinMiddleware assigns a request id, echoes it in the response and writes
// one access log line per request with masked headers.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = newRequestID()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		if _, ok := skip[c.FullPath()]; ok {
			return
		}

		FromContext(c.Request.Context()).Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Any("headers", MaskHeaders(c.Request.Header)),
		)
	}
}

func newRequestID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf[:])
}
