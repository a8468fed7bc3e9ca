package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/middleware"
	"scheduling-service/internal/services"
)

// SlotHandler handles interview slot management under a case
type SlotHandler struct {
	slotService         *services.SlotService
	availabilityService *services.AvailabilityService
	logger              *logrus.Logger
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(slotService *services.SlotService, availabilityService *services.AvailabilityService, logger *logrus.Logger) *SlotHandler {
	return &SlotHandler{
		slotService:         slotService,
		availabilityService: availabilityService,
		logger:              logger,
	}
}

type slotRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Note      string    `json:"note"`
}

// Create adds a proposed slot to a case
func (h *SlotHandler) Create(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid case id")
		return
	}

	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	slot, err := h.slotService.CreateSlot(c.Request.Context(), ident, profile, caseID, req.StartTime, req.EndTime, req.Note)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slot": slot})
}

// List returns a case's slots
func (h *SlotHandler) List(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid case id")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	slots, err := h.slotService.ListSlots(c.Request.Context(), ident, profile, caseID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// Update changes a slot's time range and note
func (h *SlotHandler) Update(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid slot id")
		return
	}

	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	slot, err := h.slotService.UpdateSlot(c.Request.Context(), ident, profile, slotID, req.StartTime, req.EndTime, req.Note)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot})
}

// Delete removes a slot and its candidate responses
func (h *SlotHandler) Delete(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid slot id")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	if err := h.slotService.DeleteSlot(c.Request.Context(), ident, profile, slotID); err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListAvailabilities returns the candidate responses recorded for a slot
func (h *SlotHandler) ListAvailabilities(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid slot id")
		return
	}

	ident := middleware.CurrentIdentity(c)
	profile := middleware.CurrentProfile(c)

	if _, err := h.slotService.ResolveSlot(c.Request.Context(), ident, profile, slotID); err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	responses, err := h.availabilityService.ListForSlot(c.Request.Context(), slotID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availabilities": responses})
}
