package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/middleware"
	"scheduling-service/internal/repository"
)

// AuthHandler issues tokens and answers super-admin probes
type AuthHandler struct {
	identities *identity.Store
	profiles   *repository.ProfileRepository
	tenants    *repository.TenantRepository
	resolver   *identity.TokenResolver
	engine     *authz.Engine
	logger     *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identities *identity.Store, profiles *repository.ProfileRepository, tenants *repository.TenantRepository, resolver *identity.TokenResolver, engine *authz.Engine, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		profiles:   profiles,
		tenants:    tenants,
		resolver:   resolver,
		engine:     engine,
		logger:     logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a bearer token. Disabled accounts
// and members of deactivated tenants cannot sign in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ident, err := h.identities.GetByEmail(c.Request.Context(), email)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	if ident == nil || !h.identities.VerifyPassword(ident, req.Password) {
		RespondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), ident.ID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	if profile != nil {
		if !profile.IsActive {
			RespondError(c, http.StatusForbidden, "this account has been disabled")
			return
		}
		if profile.TenantID != nil {
			tenant, err := h.tenants.GetByID(c.Request.Context(), *profile.TenantID)
			if err != nil {
				RespondServiceError(c, h.logger, err)
				return
			}
			if tenant == nil || !tenant.IsActive {
				RespondError(c, http.StatusForbidden, "this organization has been deactivated")
				return
			}
		}
	}

	token, err := h.resolver.IssueToken(ident.ID, ident.Email)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	user := gin.H{
		"id":    ident.ID,
		"email": ident.Email,
	}
	resp := gin.H{"token": token, "user": user}
	if profile != nil {
		user["role"] = profile.Role
		user["tenant_id"] = profile.TenantID
		resp["force_password_reset"] = profile.ForcePasswordReset
	}
	c.JSON(http.StatusOK, resp)
}

// CheckSuperAdmin reports whether the caller is the platform operator. It
// never fails: any resolution problem reads as "no".
func (h *AuthHandler) CheckSuperAdmin(c *gin.Context) {
	var ident *identity.Identity
	if token := middleware.BearerToken(c); token != "" {
		resolved, err := h.resolver.Resolve(token)
		if err == nil {
			ident = resolved
		}
	}
	c.JSON(http.StatusOK, gin.H{"isSuperAdmin": h.engine.IsSuperAdmin(ident)})
}

// Me returns the caller's identity and profile
func (h *AuthHandler) Me(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	resp := gin.H{
		"id":    ident.ID,
		"email": ident.Email,
	}
	if profile != nil {
		resp["role"] = profile.Role
		resp["tenant_id"] = profile.TenantID
		resp["is_active"] = profile.IsActive
		resp["force_password_reset"] = profile.ForcePasswordReset
	}
	c.JSON(http.StatusOK, resp)
}
