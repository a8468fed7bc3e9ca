package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/middleware"
	"scheduling-service/internal/services"
)

// AdminHandler exposes the platform-operator endpoints
type AdminHandler struct {
	tenantService *services.TenantService
	logger        *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(tenantService *services.TenantService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{tenantService: tenantService, logger: logger}
}

// ListTenants returns every tenant with per-tenant user and case counts
func (h *AdminHandler) ListTenants(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	tenants, err := h.tenantService.ListTenantsWithStats(c.Request.Context(), ident, profile)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

type toggleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ToggleTenantActive activates or deactivates a tenant
func (h *AdminHandler) ToggleTenantActive(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "is_active is required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	if err := h.tenantService.ToggleTenantActive(c.Request.Context(), ident, profile, tenantID, *req.IsActive); err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	message := "tenant deactivated"
	if *req.IsActive {
		message = "tenant activated"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "is_active": *req.IsActive})
}
