package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scheduling-service/internal/models"
)

// CaseRepository handles case persistence
type CaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create inserts a new case row
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetByID retrieves a case. Returns (nil, nil) when the id does not resolve.
// The tenant id on the returned row is the authoritative one for scoping:
// it is always fetched fresh, never trusted from the client.
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

// GetByPublicID retrieves a case by its opaque candidate-facing token.
func (r *CaseRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).First(&c, "public_id = ?", publicID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case by public id: %w", err)
	}
	return &c, nil
}

// List returns a tenant's cases, newest first. When createdBy is non-nil the
// result is restricted to that creator (member visibility).
func (r *CaseRepository) List(ctx context.Context, tenantID uuid.UUID, createdBy *uuid.UUID) ([]models.Case, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if createdBy != nil {
		query = query.Where("created_by = ?", *createdBy)
	}

	var cases []models.Case
	if err := query.Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// UpdateStatus sets the status and, when provided, the stage of a case.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, stage *string) (*models.Case, error) {
	updates := map[string]interface{}{"status": status}
	if stage != nil {
		updates["stage"] = *stage
	}

	if err := r.db.WithContext(ctx).Model(&models.Case{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}

	return r.GetByID(ctx, id)
}
