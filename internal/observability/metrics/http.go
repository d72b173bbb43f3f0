package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics captures low-cardinality HTTP server metrics.
type HTTPMetrics struct {
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

var (
	httpMetricsOnce sync.Once
	httpMetrics     *HTTPMetrics
)

func HTTPWithConfig(cfg Config) *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		httpMetrics = newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return httpMetrics
}

func ResetHTTPMetricsForTest() {
	httpMetricsOnce = sync.Once{}
	httpMetrics = nil
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "billingsync"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "billingsync_http_request_duration_seconds",
			Help:        "HTTP request latency by route template and status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "status_code"},
	)

	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "billingsync_http_in_flight_requests",
			Help:        "Requests currently being served.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(requestDuration, inFlight)

	return &HTTPMetrics{
		requestDuration: requestDuration,
		inFlight:        inFlight,
	}
}

// GinMiddleware records request duration and in-flight metrics. The route
// template keeps cardinality bounded; unmatched paths collapse to unknown.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.inFlight.Inc()
		start := time.Now()
		c.Next()
		m.inFlight.Dec()

		endpoint := normalizeEndpoint(c.FullPath())
		status := strconv.Itoa(c.Writer.Status())
		m.requestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}
