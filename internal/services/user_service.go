package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
)

// UserService handles staff account management within a tenant
type UserService struct {
	identities IdentityStore
	profiles   ProfileRepository
	engine     *authz.Engine
	logger     *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(identities IdentityStore, profiles ProfileRepository, engine *authz.Engine, logger *logrus.Logger) *UserService {
	return &UserService{
		identities: identities,
		profiles:   profiles,
		engine:     engine,
		logger:     logger,
	}
}

// CreateUserRequest carries the inputs for staff account creation
type CreateUserRequest struct {
	Email    string
	Role     string
	TenantID *uuid.UUID
}

// CreateUserResult is returned with the one-time password
type CreateUserResult struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	Password string
}

// CreateUser creates an identity and profile for a new staff member in the
// admin's tenant. The generated password is returned once. Like tenant
// provisioning, identity and profile creation are compensated on partial
// failure so no orphaned identity remains reachable.
func (s *UserService) CreateUser(ctx context.Context, ident *identity.Identity, profile *models.Profile, req *CreateUserRequest) (*CreateUserResult, error) {
	// The new user always lands in the caller's own tenant unless an
	// explicit tenant id is given, and that id still has to match: clients
	// are never trusted to choose a foreign tenant.
	targetTenant := req.TenantID
	if targetTenant == nil && profile != nil {
		targetTenant = profile.TenantID
	}

	dec := s.engine.Authorize(ident, profile, authz.Resource{TenantID: targetTenant}, authz.ActionCreateUser)
	if !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	if targetTenant == nil {
		return nil, NewAuthorizationError(authz.ReasonNoTenant)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewValidationError("email", "a valid email is required")
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, NewValidationError("role", "role must be admin or member")
	}

	password, err := identity.GenerateTemporaryPassword(identity.TemporaryPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}

	newIdent, err := s.identities.Create(ctx, email, password)
	if err != nil {
		if err == identity.ErrEmailTaken {
			return nil, NewConflictError("identity", "an account with this email already exists")
		}
		return nil, err
	}

	// Staff accounts always start on a generated credential, so the first
	// sign-in is forced through a password change.
	newProfile := &models.Profile{
		ID:                 newIdent.ID,
		TenantID:           targetTenant,
		Role:               role,
		IsActive:           true,
		ForcePasswordReset: true,
	}
	if err := s.profiles.Create(ctx, newProfile); err != nil {
		if delErr := s.identities.Delete(ctx, newIdent.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("identity_id", newIdent.ID).
				Error("compensation failed: identity left behind")
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   newIdent.ID,
		"tenant_id": targetTenant,
		"role":      role,
	}).Info("staff user created")

	return &CreateUserResult{
		UserID:   newIdent.ID,
		Email:    email,
		Role:     role,
		Password: password,
	}, nil
}

// ChangePassword sets a new password for the caller's own identity and
// clears the forced-reset flag. Any authenticated identity may rotate its
// own credential, profile or not. A failure to clear the flag is logged
// rather than returned: the password update already succeeded.
func (s *UserService) ChangePassword(ctx context.Context, ident *identity.Identity, newPassword string) error {
	if ident == nil {
		return errors.New("no authenticated identity")
	}

	newPassword = strings.TrimSpace(newPassword)
	if len([]rune(newPassword)) < 8 {
		return NewValidationError("password", "password must be at least 8 characters")
	}

	if err := s.identities.UpdatePassword(ctx, ident.ID, newPassword); err != nil {
		return err
	}
	if err := s.profiles.SetForcePasswordReset(ctx, ident.ID, false); err != nil {
		s.logger.WithError(err).WithField("user_id", ident.ID).
			Error("failed to clear password reset flag")
	}

	s.logger.WithField("user_id", ident.ID).Info("password changed")
	return nil
}

// ToggleUserActive enables or disables a staff profile in the caller's
// tenant. Self-deactivation is denied regardless of role, and the update is
// tenant-scoped at the storage layer as well.
func (s *UserService) ToggleUserActive(ctx context.Context, ident *identity.Identity, profile *models.Profile, targetID uuid.UUID, active bool) (*models.Profile, error) {
	dec := s.engine.Authorize(ident, profile, authz.Resource{
		TenantID:        tenantIDOf(profile),
		TargetProfileID: &targetID,
	}, authz.ActionToggleUserActive)
	if !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	if profile.TenantID == nil {
		return nil, NewAuthorizationError(authz.ReasonNoTenant)
	}

	updated, err := s.profiles.SetActive(ctx, targetID, *profile.TenantID, active)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewNotFoundError("user")
	}
	return updated, nil
}

// ListUsers returns all profiles in the caller's tenant. Admin only.
func (s *UserService) ListUsers(ctx context.Context, ident *identity.Identity, profile *models.Profile) ([]models.Profile, error) {
	dec := s.engine.Authorize(ident, profile, authz.Resource{TenantID: tenantIDOf(profile)}, authz.ActionListUsers)
	if !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	if profile.TenantID == nil {
		return nil, NewAuthorizationError(authz.ReasonNoTenant)
	}
	return s.profiles.ListByTenant(ctx, *profile.TenantID)
}

func tenantIDOf(profile *models.Profile) *uuid.UUID {
	if profile == nil {
		return nil
	}
	return profile.TenantID
}
