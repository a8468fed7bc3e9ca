package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"scheduling-service/internal/models"
)

// ErrEmailTaken is returned when an identity already exists for an email.
var ErrEmailTaken = errors.New("an account with this email already exists")

// Store manages auth identities (email + password hash). Deleting an
// identity is only used as a compensating action when a multi-step creation
// flow fails partway.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new identity store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create registers a new identity with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ident := &models.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.db.WithContext(ctx).Create(ident).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	return ident, nil
}

// GetByEmail looks up an identity by email. Returns (nil, nil) when absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var ident models.Identity
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&ident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	return &ident, nil
}

// GetByID looks up an identity by id. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var ident models.Identity
	err := s.db.WithContext(ctx).First(&ident, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	return &ident, nil
}

// UpdatePassword replaces the stored hash with one for the new password.
func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.Identity{}).
		Where("id = ?", id).
		Update("password_hash", string(hash))
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("identity not found")
	}
	return nil
}

// Delete removes an identity. Compensation only.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.Identity{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Store) VerifyPassword(ident *models.Identity, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)) == nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
