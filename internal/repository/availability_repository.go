package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"scheduling-service/internal/models"
)

// ErrDuplicateResponse is returned when a candidate submits availability for
// a (slot, email) pair that already has a response. Concurrent duplicates
// are serialized by the unique index, so this is an expected, recoverable
// outcome rather than an internal failure.
var ErrDuplicateResponse = errors.New("availability already recorded for this slot and email")

const pgUniqueViolation = "23505"

// AvailabilityRepository handles candidate availability persistence
type AvailabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// InsertBatch inserts one availability row per slot inside a transaction, so
// a duplicate on any slot leaves nothing behind.
func (r *AvailabilityRepository) InsertBatch(ctx context.Context, rows []models.CandidateAvailability) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateResponse
		}
		return fmt.Errorf("failed to insert availabilities: %w", err)
	}
	return nil
}

// ListBySlot returns all availabilities recorded for a slot.
func (r *AvailabilityRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]models.CandidateAvailability, error) {
	var rows []models.CandidateAvailability
	if err := r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}
	return rows, nil
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
