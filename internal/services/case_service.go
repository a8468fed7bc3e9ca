package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
)

// CaseRepository is the persistence surface for cases
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Case, error)
	List(ctx context.Context, tenantID uuid.UUID, createdBy *uuid.UUID) ([]models.Case, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, stage *string) (*models.Case, error)
}

// SlotRepository is the persistence surface for slots
type SlotRepository interface {
	Create(ctx context.Context, slot *models.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Slot, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Slot, error)
	FilterIDsForCase(ctx context.Context, caseID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, start, end time.Time, note string) (*models.Slot, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CaseService handles staff-facing case reads and status updates
type CaseService struct {
	cases  CaseRepository
	slots  SlotRepository
	engine *authz.Engine
}

// NewCaseService creates a new case service
func NewCaseService(cases CaseRepository, slots SlotRepository, engine *authz.Engine) *CaseService {
	return &CaseService{cases: cases, slots: slots, engine: engine}
}

// ListCases returns the cases visible to the caller: members see only their
// own, admins see every case in their tenant.
func (s *CaseService) ListCases(ctx context.Context, ident *identity.Identity, profile *models.Profile) ([]models.Case, error) {
	res := authz.Resource{}
	if profile != nil {
		res.TenantID = profile.TenantID
		res.OwnerID = &profile.ID
	}
	if dec := s.engine.Authorize(ident, profile, res, authz.ActionReadCase); !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	if profile.TenantID == nil {
		return nil, NewAuthorizationError(authz.ReasonNoTenant)
	}

	var createdBy *uuid.UUID
	if s.engine.OwnCasesOnly(profile) {
		createdBy = &profile.ID
	}
	return s.cases.List(ctx, *profile.TenantID, createdBy)
}

// GetCase returns a single case after re-checking tenant scope and member
// ownership against the stored row.
func (s *CaseService) GetCase(ctx context.Context, ident *identity.Identity, profile *models.Profile, caseID uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("case")
	}

	dec := s.engine.Authorize(ident, profile, authz.Resource{
		TenantID: c.TenantID,
		OwnerID:  c.CreatedBy,
	}, authz.ActionReadCase)
	if !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	return c, nil
}

// UpdateCaseStatus mutates a case's status (and optionally stage). The
// owning tenant is resolved from the stored case, never from the client.
func (s *CaseService) UpdateCaseStatus(ctx context.Context, ident *identity.Identity, profile *models.Profile, caseID uuid.UUID, status string, stage *string) (*models.Case, error) {
	if strings.TrimSpace(status) == "" {
		return nil, NewValidationError("status", "status is required")
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("case")
	}

	dec := s.engine.Authorize(ident, profile, authz.Resource{TenantID: c.TenantID}, authz.ActionUpdateCase)
	if !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}

	return s.cases.UpdateStatus(ctx, caseID, status, stage)
}

// PublicCase is the candidate-facing view of a case: no tenant internals,
// no raw email body.
type PublicCase struct {
	PublicID      string        `json:"public_id"`
	Title         string        `json:"title"`
	CandidateName string        `json:"candidate_name"`
	Stage         string        `json:"stage"`
	Status        string        `json:"status"`
	Slots         []models.Slot `json:"slots"`
}

// GetPublicCase resolves a case by its opaque public token for the
// unauthenticated candidate page.
func (s *CaseService) GetPublicCase(ctx context.Context, publicID string) (*PublicCase, error) {
	c, err := s.cases.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("case")
	}

	slots, err := s.slots.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &PublicCase{
		PublicID:      c.PublicID,
		Title:         c.Title,
		CandidateName: c.CandidateName,
		Stage:         c.Stage,
		Status:        c.Status,
		Slots:         slots,
	}, nil
}
