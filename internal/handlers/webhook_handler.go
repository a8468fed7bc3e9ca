package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/services"
)

// ZapierSecretHeader carries the shared secret on forwarded email hooks
const ZapierSecretHeader = "x-zapier-secret"

// WebhookHandler accepts forwarded recruitment emails from the mail hook
type WebhookHandler struct {
	intakeService *services.IntakeService
	secret        string
	logger        *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(intakeService *services.IntakeService, secret string, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		intakeService: intakeService,
		secret:        secret,
		logger:        logger,
	}
}

// IngestEmail materializes a case from a forwarded email. With no secret
// configured the endpoint is disabled entirely.
func (h *WebhookHandler) IngestEmail(c *gin.Context) {
	if h.secret == "" {
		RespondError(c, http.StatusServiceUnavailable, "webhook intake is not configured")
		return
	}

	provided := c.GetHeader(ZapierSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.logger.WithField("ip", c.ClientIP()).Warn("Webhook request with invalid secret")
		RespondError(c, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var req services.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.intakeService.CreateCaseFromWebhook(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"case": created, "source": "zapier_webhook"})
}
