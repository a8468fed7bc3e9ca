package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scheduling-service/internal/models"
)

// TenantRepository handles tenant persistence
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// TenantStats holds per-tenant aggregation counts
type TenantStats struct {
	UserCount int64 `json:"user_count"`
	CaseCount int64 `json:"case_count"`
}

// Create inserts a new tenant row
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant. Returns (nil, nil) when the id does not resolve.
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

// ExistsByMailbox reports whether a mailbox address is already taken.
func (r *TenantRepository) ExistsByMailbox(ctx context.Context, mailbox string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("mailbox_address = ?", mailbox).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check mailbox address: %w", err)
	}
	return count > 0, nil
}

// List returns all tenants, newest first.
func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// GetStats computes user and case counts for one tenant. Counts are per
// tenant, never global.
func (r *TenantRepository) GetStats(ctx context.Context, tenantID uuid.UUID) (*TenantStats, error) {
	stats := &TenantStats{}

	if err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("tenant_id = ?", tenantID).
		Count(&stats.UserCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count tenant users: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&models.Case{}).
		Where("tenant_id = ?", tenantID).
		Count(&stats.CaseCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count tenant cases: %w", err)
	}

	return stats, nil
}

// SetActive flips the soft activation gate. Returns false when the tenant
// does not exist.
func (r *TenantRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update tenant status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a tenant row. Compensation only: tenants are never deleted
// in-product once provisioning has completed.
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return nil
}
