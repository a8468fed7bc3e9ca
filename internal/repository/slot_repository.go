package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scheduling-service/internal/models"
)

// SlotRepository handles slot persistence
type SlotRepository struct {
	db *gorm.DB
}

// NewSlotRepository creates a new slot repository
func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Create inserts a new slot row
func (r *SlotRepository) Create(ctx context.Context, slot *models.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

// GetByID retrieves a slot. Returns (nil, nil) when the id does not resolve.
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}

// ListByCase returns all slots of a case ordered by start time.
func (r *SlotRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Slot, error) {
	var slots []models.Slot
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("start_time ASC").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// FilterIDsForCase returns the subset of the given slot ids that actually
// belong to the case. Ids pointing at other cases silently drop out, which
// is how cross-case submissions are rejected.
func (r *SlotRepository) FilterIDsForCase(ctx context.Context, caseID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var valid []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Slot{}).
		Where("id IN ? AND case_id = ?", ids, caseID).
		Pluck("id", &valid).Error; err != nil {
		return nil, fmt.Errorf("failed to validate slot ids: %w", err)
	}
	return valid, nil
}

// Update sets the time window and note of a slot.
func (r *SlotRepository) Update(ctx context.Context, id uuid.UUID, start, end time.Time, note string) (*models.Slot, error) {
	if err := r.db.WithContext(ctx).Model(&models.Slot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"start_time": start,
			"end_time":   end,
			"note":       note,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a slot and all its candidate availabilities in one
// transaction. The FK cascade covers engines that enforce it; the explicit
// delete keeps the behavior independent of migration state.
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CandidateAvailability{}, "slot_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete slot availabilities: %w", err)
		}
		if err := tx.Delete(&models.Slot{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete slot: %w", err)
		}
		return nil
	})
}
