package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/middleware"
	"scheduling-service/internal/services"
)

// TenantHandler handles tenant self-service provisioning
type TenantHandler struct {
	tenantService *services.TenantService
	logger        *logrus.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *services.TenantService, logger *logrus.Logger) *TenantHandler {
	return &TenantHandler{tenantService: tenantService, logger: logger}
}

type provisionTenantRequest struct {
	TenantName    string `json:"tenant_name" binding:"required"`
	AdminEmail    string `json:"admin_email" binding:"required"`
	AdminPassword string `json:"admin_password"`
}

// ProvisionTenant creates a tenant together with its first admin. The
// response carries the admin's one-time password when one was generated.
func (h *TenantHandler) ProvisionTenant(c *gin.Context) {
	var req provisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "tenant_name and admin_email are required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	result, err := h.tenantService.ProvisionTenant(c.Request.Context(), ident, profile, &services.ProvisionTenantRequest{
		TenantName:    req.TenantName,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tenant": result.Tenant,
		"admin": gin.H{
			"id":    result.AdminID,
			"email": result.Email,
			"role":  result.Role,
		},
		"password": result.Password,
	})
}
