package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/metrics"
	"scheduling-service/internal/services"
)

// RespondError writes the uniform error envelope
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// RespondServiceError maps service-layer errors onto HTTP statuses. Unknown
// errors become opaque 500s; the cause is logged, never echoed to the
// client.
func RespondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	if ve, ok := services.IsValidationError(err); ok {
		RespondError(c, http.StatusBadRequest, ve.Message)
		return
	}
	if ae, ok := services.IsAuthorizationError(err); ok {
		metrics.AuthzDenials.WithLabelValues(string(ae.Reason)).Inc()
		RespondError(c, http.StatusForbidden, ae.Message())
		return
	}
	if _, ok := services.IsNotFoundError(err); ok {
		RespondError(c, http.StatusNotFound, "resource not found")
		return
	}
	if ce, ok := services.IsConflictError(err); ok {
		RespondError(c, http.StatusConflict, ce.Message)
		return
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("Unhandled service error")
	RespondError(c, http.StatusInternalServerError, "internal server error")
}
