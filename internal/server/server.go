package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	webhookdomain "github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Engine     *gin.Engine
	WebhookSvc webhookdomain.Service
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	engine     *gin.Engine
	webhookSvc webhookdomain.Service
	limiter    *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		engine:     p.Engine,
		webhookSvc: p.WebhookSvc,
		limiter:    newRateLimiter(webhookRateLimit, webhookRateWindow),
	}
}

// RegisterRoutes mounts the webhook ingress plus health and metrics.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST("/webhooks/stripe/:program", s.rateLimit, s.HandleStripeWebhook)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
