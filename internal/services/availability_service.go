package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/metrics"
	"scheduling-service/internal/models"
	"scheduling-service/internal/repository"
)

// AvailabilityRepository is the persistence surface for candidate responses
type AvailabilityRepository interface {
	InsertBatch(ctx context.Context, rows []models.CandidateAvailability) error
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]models.CandidateAvailability, error)
}

// AvailabilityService records candidate responses against a case's slots.
// It is the only write path reachable without authentication.
type AvailabilityService struct {
	availabilities AvailabilityRepository
	cases          CaseRepository
	slots          SlotRepository
	logger         *logrus.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(availabilities AvailabilityRepository, cases CaseRepository, slots SlotRepository, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		availabilities: availabilities,
		cases:          cases,
		slots:          slots,
		logger:         logger,
	}
}

// SubmitRequest is one candidate's availability response
type SubmitRequest struct {
	CaseID        uuid.UUID
	SlotIDs       []uuid.UUID
	CandidateName string
	Email         string
}

// Submit records a candidate's availability. Slot ids that do not belong to
// the named case reject the whole submission. Returns the recorded slot ids.
func (s *AvailabilityService) Submit(ctx context.Context, req SubmitRequest) ([]uuid.UUID, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			metrics.AvailabilitySubmissions.WithLabelValues("invalid").Inc()
			return nil, NewValidationError("email", "email is not a valid address")
		}
	}
	if len(req.SlotIDs) == 0 {
		metrics.AvailabilitySubmissions.WithLabelValues("invalid").Inc()
		return nil, NewValidationError("slot_ids", "at least one slot must be selected")
	}

	c, err := s.cases.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		metrics.AvailabilitySubmissions.WithLabelValues("invalid").Inc()
		return nil, NewNotFoundError("case")
	}

	valid, err := s.slots.FilterIDsForCase(ctx, c.ID, req.SlotIDs)
	if err != nil {
		return nil, err
	}
	if len(valid) != len(uniqueIDs(req.SlotIDs)) {
		metrics.AvailabilitySubmissions.WithLabelValues("invalid").Inc()
		return nil, NewValidationError("slot_ids", "one or more slots do not belong to this case")
	}

	rows := make([]models.CandidateAvailability, 0, len(valid))
	for _, slotID := range valid {
		rows = append(rows, models.CandidateAvailability{
			CaseID:        c.ID,
			SlotID:        slotID,
			CandidateName: strings.TrimSpace(req.CandidateName),
			Email:         email,
			Status:        "available",
		})
	}

	if err := s.availabilities.InsertBatch(ctx, rows); err != nil {
		if errors.Is(err, repository.ErrDuplicateResponse) {
			metrics.AvailabilitySubmissions.WithLabelValues("duplicate").Inc()
			return nil, NewConflictError("availability", "you have already responded to this slot")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"case_id": c.ID,
		"slots":   len(valid),
	}).Info("Candidate availability recorded")
	metrics.AvailabilitySubmissions.WithLabelValues("accepted").Inc()
	return valid, nil
}

// ListForSlot returns the responses recorded against one slot
func (s *AvailabilityService) ListForSlot(ctx context.Context, slotID uuid.UUID) ([]models.CandidateAvailability, error) {
	return s.availabilities.ListBySlot(ctx, slotID)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
