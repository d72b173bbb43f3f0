package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mustafamuse/irshad-center-sub014/internal/program"
	webhookdomain "github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

const signatureHeader = "Stripe-Signature"

// HandleStripeWebhook receives one provider delivery. The program comes
// from the route path only; the body is read raw so the signature check
// sees the exact bytes Stripe signed.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	prog, err := program.Parse(c.Param("program"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_program"})
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
		return
	}

	disposition := s.webhookSvc.Reconcile(c.Request.Context(), webhookdomain.Delivery{
		Program:         prog,
		Payload:         payload,
		SignatureHeader: c.GetHeader(signatureHeader),
	})

	switch disposition.Kind {
	case webhookdomain.DispositionAccepted:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case webhookdomain.DispositionRetry:
		// Any non-2xx makes Stripe redeliver with backoff.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": disposition.Reason})
	default:
		s.respondFatal(c, disposition)
	}
}

// respondFatal acknowledges most fatal events with 200: the ledger row
// already blocks reprocessing, and a non-2xx would only make Stripe
// hammer a known-bad event until its retry budget runs out. Signature
// failures are the exception; those were never Stripe's delivery.
func (s *Server) respondFatal(c *gin.Context, disposition webhookdomain.Disposition) {
	if disposition.Reason == "invalid_signature" {
		c.JSON(http.StatusBadRequest, gin.H{"error": disposition.Reason})
		return
	}
	s.log.Warn("fatal event acknowledged",
		zap.String("reason", disposition.Reason),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, gin.H{"received": true, "rejected": disposition.Reason})
}
