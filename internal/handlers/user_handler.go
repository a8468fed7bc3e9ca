package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/middleware"
	"scheduling-service/internal/services"
)

// UserHandler handles tenant-admin user management
type UserHandler struct {
	userService *services.UserService
	logger      *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// CreateUser adds a staff member to the caller's tenant
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "email is required")
		return
	}

	var tenantID *uuid.UUID
	if req.TenantID != "" {
		id, err := uuid.Parse(req.TenantID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid tenant id")
			return
		}
		tenantID = &id
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	result, err := h.userService.CreateUser(c.Request.Context(), ident, profile, &services.CreateUserRequest{
		Email:    req.Email,
		Role:     req.Role,
		TenantID: tenantID,
	})
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": gin.H{
			"id":    result.UserID,
			"email": result.Email,
			"role":  result.Role,
		},
		"password": result.Password,
	})
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword rotates the caller's own password and clears the
// forced-reset flag set when the account was provisioned.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "new_password is required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	if err := h.userService.ChangePassword(c.Request.Context(), ident, req.NewPassword); err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// ListUsers returns the caller's tenant members
func (h *UserHandler) ListUsers(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	users, err := h.userService.ListUsers(c.Request.Context(), ident, profile)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ToggleUserActive enables or disables a tenant member
func (h *UserHandler) ToggleUserActive(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "is_active is required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	updated, err := h.userService.ToggleUserActive(c.Request.Context(), ident, profile, targetID, *req.IsActive)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": updated})
}
