package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scheduling-service/internal/models"
)

// ProfileRepository handles profile persistence
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile row
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile. A missing profile is a legitimate state
// (identity registered, no tenant assigned yet) and returns (nil, nil).
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// ListByTenant returns all profiles belonging to a tenant.
func (r *ProfileRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// SetActive updates the is_active flag, scoped to the given tenant so a
// caller can never reach across tenants by id. Returns the updated profile
// or (nil, nil) when no row matched.
func (r *ProfileRepository) SetActive(ctx context.Context, id, tenantID uuid.UUID, active bool) (*models.Profile, error) {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("is_active", active)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// SetForcePasswordReset flips the forced-reset flag. Unlike SetActive this is
// keyed by id alone: a user clears their own flag and needs no tenant scope.
func (r *ProfileRepository) SetForcePasswordReset(ctx context.Context, id uuid.UUID, force bool) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("force_password_reset", force)
	if result.Error != nil {
		return fmt.Errorf("failed to update password reset flag: %w", result.Error)
	}
	return nil
}

// Delete removes a profile row. Compensation only.
func (r *ProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Profile{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
