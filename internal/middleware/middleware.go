package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
)

// Context keys set by the middleware chain
const (
	RequestIDKey = "request_id"
	IdentityKey  = "identity"
	ProfileKey   = "profile"
)

// RequestID middleware generates or extracts correlation IDs for request tracing
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// StructuredLogger middleware logs requests with structured fields
func StructuredLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		requestID, _ := c.Get(RequestIDKey)
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"ip":         c.ClientIP(),
			"request_id": requestID,
		}).Info("request completed")
	}
}

// ProfileStore loads the caller's profile. A nil profile is a legitimate
// outcome (identity without tenant assignment).
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// TenantStore loads tenants for the inactive-tenant gate.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Authenticate resolves the bearer credential and loads the caller's profile
// fresh on every request. It rejects disabled accounts and members of
// deactivated tenants here, not just at login, so a previously issued token
// stops working the moment the account or tenant is switched off.
func Authenticate(resolver identity.Resolver, profiles ProfileStore, tenants TenantStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := resolver.Resolve(BearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		profile, err := profiles.GetByID(c.Request.Context(), ident.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
			return
		}

		if profile != nil {
			if !profile.IsActive {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "this account has been disabled"})
				return
			}
			if profile.TenantID != nil {
				tenant, err := tenants.GetByID(c.Request.Context(), *profile.TenantID)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load tenant"})
					return
				}
				if tenant == nil || !tenant.IsActive {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "this organization has been deactivated"})
					return
				}
			}
		}

		c.Set(IdentityKey, ident)
		if profile != nil {
			c.Set(ProfileKey, profile)
		}

		c.Next()
	}
}

// BearerToken extracts the bearer credential from the Authorization header.
// Returns "" when absent or malformed.
func BearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// CurrentIdentity returns the resolved identity set by Authenticate.
func CurrentIdentity(c *gin.Context) *identity.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		return v.(*identity.Identity)
	}
	return nil
}

// CurrentProfile returns the caller's profile, or nil when none exists.
func CurrentProfile(c *gin.Context) *models.Profile {
	if v, exists := c.Get(ProfileKey); exists {
		return v.(*models.Profile)
	}
	return nil
}
