package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/logger"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/metrics"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/tracing"
)

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if !strings.EqualFold(cfg.Environment, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		tracing.GinMiddleware(),
		metrics.GinMiddleware(httpMetrics),
		logger.GinMiddleware(logger.MiddlewareConfig{
			SkipPaths: []string{"/healthz", "/metrics"},
		}),
	)
	return engine
}
