package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
	"scheduling-service/internal/nats"
)

// SlotService manages interview slots under a case
type SlotService struct {
	slots      SlotRepository
	cases      CaseRepository
	engine     *authz.Engine
	natsClient *nats.Client
	logger     *logrus.Logger
}

// NewSlotService creates a new slot service
func NewSlotService(slots SlotRepository, cases CaseRepository, engine *authz.Engine, natsClient *nats.Client, logger *logrus.Logger) *SlotService {
	return &SlotService{
		slots:      slots,
		cases:      cases,
		engine:     engine,
		natsClient: natsClient,
		logger:     logger,
	}
}

// authorizeCase walks slot-side requests back to the owning case and checks
// the caller against that case's tenant.
func (s *SlotService) authorizeCase(ctx context.Context, ident *identity.Identity, profile *models.Profile, caseID uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("case")
	}
	dec := s.engine.Authorize(ident, profile, authz.Resource{TenantID: c.TenantID}, authz.ActionManageSlot)
	if !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	return c, nil
}

// CreateSlot adds a proposed interview slot to a case
func (s *SlotService) CreateSlot(ctx context.Context, ident *identity.Identity, profile *models.Profile, caseID uuid.UUID, start, end time.Time, note string) (*models.Slot, error) {
	if _, err := s.authorizeCase(ctx, ident, profile, caseID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, NewValidationError("end_time", "end time must be after start time")
	}

	slot := &models.Slot{
		CaseID:    caseID,
		StartTime: start,
		EndTime:   end,
		Note:      note,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ListSlots returns a case's slots ordered by start time
func (s *SlotService) ListSlots(ctx context.Context, ident *identity.Identity, profile *models.Profile, caseID uuid.UUID) ([]models.Slot, error) {
	if _, err := s.authorizeCase(ctx, ident, profile, caseID); err != nil {
		return nil, err
	}
	return s.slots.ListByCase(ctx, caseID)
}

// UpdateSlot replaces a slot's time range and note
func (s *SlotService) UpdateSlot(ctx context.Context, ident *identity.Identity, profile *models.Profile, slotID uuid.UUID, start, end time.Time, note string) (*models.Slot, error) {
	if _, err := s.ResolveSlot(ctx, ident, profile, slotID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, NewValidationError("end_time", "end time must be after start time")
	}
	return s.slots.Update(ctx, slotID, start, end, note)
}

// ResolveSlot loads a slot after checking the caller may manage its case
func (s *SlotService) ResolveSlot(ctx context.Context, ident *identity.Identity, profile *models.Profile, slotID uuid.UUID) (*models.Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, NewNotFoundError("slot")
	}
	if _, err := s.authorizeCase(ctx, ident, profile, slot.CaseID); err != nil {
		return nil, err
	}
	return slot, nil
}

// DeleteSlot removes a slot and its candidate responses
func (s *SlotService) DeleteSlot(ctx context.Context, ident *identity.Identity, profile *models.Profile, slotID uuid.UUID) error {
	slot, err := s.ResolveSlot(ctx, ident, profile, slotID)
	if err != nil {
		return err
	}

	if err := s.slots.Delete(ctx, slotID); err != nil {
		return err
	}

	if s.natsClient != nil {
		s.natsClient.PublishSlotDeleted(&nats.SlotDeletedEvent{
			SlotID: slot.ID.String(),
			CaseID: slot.CaseID.String(),
		})
	}
	return nil
}
