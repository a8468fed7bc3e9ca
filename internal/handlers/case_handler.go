package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/middleware"
	"scheduling-service/internal/services"
)

// CaseHandler handles staff-facing case endpoints and the public case view
type CaseHandler struct {
	caseService   *services.CaseService
	intakeService *services.IntakeService
	logger        *logrus.Logger
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *services.CaseService, intakeService *services.IntakeService, logger *logrus.Logger) *CaseHandler {
	return &CaseHandler{
		caseService:   caseService,
		intakeService: intakeService,
		logger:        logger,
	}
}

type createCaseRequest struct {
	EmailText string `json:"email_text" binding:"required"`
}

// CreateFromEmail materializes a case from pasted email text
func (h *CaseHandler) CreateFromEmail(c *gin.Context) {
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "email_text is required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	created, err := h.intakeService.CreateCaseFromEmail(c.Request.Context(), ident, profile, req.EmailText)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"case": created})
}

// List returns the cases visible to the caller
func (h *CaseHandler) List(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	cases, err := h.caseService.ListCases(c.Request.Context(), ident, profile)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// Get returns one case by id
func (h *CaseHandler) Get(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid case id")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	found, err := h.caseService.GetCase(c.Request.Context(), ident, profile, caseID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": found})
}

type updateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Stage  *string `json:"stage"`
}

// UpdateStatus changes a case's status and optionally its stage
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid case id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "status is required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	updated, err := h.caseService.UpdateCaseStatus(c.Request.Context(), ident, profile, caseID, req.Status, req.Stage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": updated})
}

// GetPublic returns the candidate-facing view of a case by its public token
func (h *CaseHandler) GetPublic(c *gin.Context) {
	publicID := c.Param("publicId")
	if publicID == "" {
		RespondError(c, http.StatusBadRequest, "public id is required")
		return
	}

	view, err := h.caseService.GetPublicCase(c.Request.Context(), publicID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
