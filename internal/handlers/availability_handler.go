package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/redis"
	"scheduling-service/internal/services"
)

// Submission rate limit per client IP
const (
	submitRateLimit  = 30
	submitRateWindow = time.Minute
)

// AvailabilityHandler accepts candidate responses on the public page
type AvailabilityHandler struct {
	availabilityService *services.AvailabilityService
	redisClient         *redis.Client
	logger              *logrus.Logger
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService *services.AvailabilityService, redisClient *redis.Client, logger *logrus.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityService: availabilityService,
		redisClient:         redisClient,
		logger:              logger,
	}
}

// submitRateKey names the per-IP counter. Allow prepends the shared
// ratelimit prefix, so none is added here.
func submitRateKey(ip string) string {
	return "availability:" + ip
}

type submitAvailabilityRequest struct {
	CaseID        string   `json:"case_id" binding:"required"`
	SlotIDs       []string `json:"slot_ids" binding:"required"`
	CandidateName string   `json:"candidate_name"`
	Email         string   `json:"email"`
}

// Submit records a candidate's availability for a case's slots
func (h *AvailabilityHandler) Submit(c *gin.Context) {
	if h.redisClient != nil {
		allowed, err := h.redisClient.Allow(c.Request.Context(), submitRateKey(c.ClientIP()), submitRateLimit, submitRateWindow)
		if err == nil && !allowed {
			RespondError(c, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
	}

	var req submitAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "case_id and slot_ids are required")
		return
	}

	caseID, err := uuid.Parse(req.CaseID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid case id")
		return
	}
	slotIDs := make([]uuid.UUID, 0, len(req.SlotIDs))
	for _, raw := range req.SlotIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid slot id")
			return
		}
		slotIDs = append(slotIDs, id)
	}

	recorded, err := h.availabilityService.Submit(c.Request.Context(), services.SubmitRequest{
		CaseID:        caseID,
		SlotIDs:       slotIDs,
		CandidateName: req.CandidateName,
		Email:         req.Email,
	})
	if err != nil {
		// Repeat responses come back as 400 so the page shows the message inline.
		if ce, ok := services.IsConflictError(err); ok && ce.Resource == "availability" {
			RespondError(c, http.StatusBadRequest, ce.Message)
			return
		}
		RespondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slot_ids": recorded})
}
