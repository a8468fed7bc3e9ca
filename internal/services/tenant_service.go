package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
	natsClient "scheduling-service/internal/nats"
	"scheduling-service/internal/repository"
)

// TenantRepository is the persistence surface the tenant service needs
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ExistsByMailbox(ctx context.Context, mailbox string) (bool, error)
	List(ctx context.Context) ([]models.Tenant, error)
	GetStats(ctx context.Context, tenantID uuid.UUID) (*repository.TenantStats, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository is the persistence surface for profiles
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Profile, error)
	SetActive(ctx context.Context, id, tenantID uuid.UUID, active bool) (*models.Profile, error)
	SetForcePasswordReset(ctx context.Context, id uuid.UUID, force bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// IdentityStore is the auth-identity surface used during provisioning
type IdentityStore interface {
	Create(ctx context.Context, email, password string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, password string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TenantService handles tenant lifecycle: provisioning, listing with stats,
// and the activation toggle.
type TenantService struct {
	tenants       TenantRepository
	profiles      ProfileRepository
	identities    IdentityStore
	engine        *authz.Engine
	natsClient    *natsClient.Client
	mailboxDomain string
	logger        *logrus.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenants TenantRepository,
	profiles ProfileRepository,
	identities IdentityStore,
	engine *authz.Engine,
	nc *natsClient.Client,
	mailboxDomain string,
	logger *logrus.Logger,
) *TenantService {
	return &TenantService{
		tenants:       tenants,
		profiles:      profiles,
		identities:    identities,
		engine:        engine,
		natsClient:    nc,
		mailboxDomain: mailboxDomain,
		logger:        logger,
	}
}

// ProvisionTenantRequest carries the inputs for tenant provisioning
type ProvisionTenantRequest struct {
	TenantName    string
	AdminEmail    string
	AdminPassword string
}

// ProvisionTenantResult is returned after successful provisioning. Password
// is the one-time credential: it is shown here and never retrievable again.
type ProvisionTenantResult struct {
	Tenant   *models.Tenant
	AdminID  uuid.UUID
	Email    string
	Role     string
	Password string
}

// ProvisionTenant creates a tenant, its admin identity and the admin profile
// as one logical unit. Identity and profile creation cannot share a database
// transaction with the tenant row (the identity backend is a separate
// concern), so this is an explicit saga: if profile creation fails, the
// created identity and the tenant are compensated away. A pre-existing
// identity is reused and never deleted during compensation.
func (s *TenantService) ProvisionTenant(ctx context.Context, ident *identity.Identity, profile *models.Profile, req *ProvisionTenantRequest) (*ProvisionTenantResult, error) {
	if dec := s.engine.Authorize(ident, profile, authz.Resource{}, authz.ActionCreateTenant); !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}

	name := strings.TrimSpace(req.TenantName)
	if name == "" {
		return nil, NewValidationError("tenant_name", "tenant name is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.AdminEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewValidationError("admin_email", "a valid admin email is required")
	}

	password := req.AdminPassword
	generatedPassword := false
	if len(password) < 8 {
		generated, err := identity.GenerateTemporaryPassword(identity.TemporaryPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
		password = generated
		generatedPassword = true
	}

	mailbox, err := s.generateMailboxAddress(ctx)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:             uuid.New(),
		Name:           name,
		MailboxAddress: mailbox,
		IsActive:       true,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}

	adminIdent, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		s.compensate(ctx, tenant.ID, nil)
		return nil, err
	}
	createdIdentity := false
	if adminIdent == nil {
		adminIdent, err = s.identities.Create(ctx, email, password)
		if err != nil {
			s.compensate(ctx, tenant.ID, nil)
			if err == identity.ErrEmailTaken {
				return nil, NewConflictError("identity", "an account with this email already exists")
			}
			return nil, err
		}
		createdIdentity = true
	}

	// A generated credential must be rotated on first sign-in. An
	// admin-chosen password needs no forced reset.
	adminProfile := &models.Profile{
		ID:                 adminIdent.ID,
		TenantID:           &tenant.ID,
		Role:               models.RoleAdmin,
		IsActive:           true,
		ForcePasswordReset: generatedPassword && createdIdentity,
	}
	if err := s.profiles.Create(ctx, adminProfile); err != nil {
		var createdID *uuid.UUID
		if createdIdentity {
			createdID = &adminIdent.ID
		}
		s.compensate(ctx, tenant.ID, createdID)
		return nil, fmt.Errorf("failed to create admin profile: %w", err)
	}

	if s.natsClient != nil {
		s.natsClient.PublishTenantCreated(&natsClient.TenantCreatedEvent{
			TenantID:       tenant.ID.String(),
			Name:           tenant.Name,
			MailboxAddress: tenant.MailboxAddress,
			AdminEmail:     email,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"admin_id":  adminIdent.ID,
	}).Info("tenant provisioned")

	return &ProvisionTenantResult{
		Tenant:   tenant,
		AdminID:  adminIdent.ID,
		Email:    email,
		Role:     adminProfile.Role,
		Password: password,
	}, nil
}

// compensate rolls back the partial provisioning state. Compensation errors
// are logged, not returned: the caller already failed and the original error
// is the one worth surfacing.
func (s *TenantService) compensate(ctx context.Context, tenantID uuid.UUID, identityID *uuid.UUID) {
	if identityID != nil {
		if err := s.identities.Delete(ctx, *identityID); err != nil {
			s.logger.WithError(err).WithField("identity_id", identityID).
				Error("compensation failed: identity left behind")
		}
	}
	if err := s.tenants.Delete(ctx, tenantID); err != nil {
		s.logger.WithError(err).WithField("tenant_id", tenantID).
			Error("compensation failed: tenant left behind")
	}
}

// TenantWithStats combines a tenant with its aggregation counts
type TenantWithStats struct {
	models.Tenant
	UserCount int64 `json:"user_count"`
	CaseCount int64 `json:"case_count"`
}

// ListTenantsWithStats returns every tenant with its per-tenant user and
// case counts. Super-admin only.
func (s *TenantService) ListTenantsWithStats(ctx context.Context, ident *identity.Identity, profile *models.Profile) ([]TenantWithStats, error) {
	if dec := s.engine.Authorize(ident, profile, authz.Resource{}, authz.ActionListTenants); !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}

	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TenantWithStats, 0, len(tenants))
	for _, t := range tenants {
		stats, err := s.tenants.GetStats(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TenantWithStats{
			Tenant:    t,
			UserCount: stats.UserCount,
			CaseCount: stats.CaseCount,
		})
	}
	return out, nil
}

// ToggleTenantActive flips a tenant's activation gate. Super-admin only;
// this never cascades into deletes.
func (s *TenantService) ToggleTenantActive(ctx context.Context, ident *identity.Identity, profile *models.Profile, tenantID uuid.UUID, active bool) error {
	if dec := s.engine.Authorize(ident, profile, authz.Resource{}, authz.ActionToggleTenantActive); !dec.Allowed {
		return NewAuthorizationError(dec.Reason)
	}

	updated, err := s.tenants.SetActive(ctx, tenantID, active)
	if err != nil {
		return err
	}
	if !updated {
		return NewNotFoundError("tenant")
	}

	if s.natsClient != nil {
		s.natsClient.PublishTenantStatusChanged(&natsClient.TenantStatusChangedEvent{
			TenantID: tenantID.String(),
			IsActive: active,
		})
	}
	return nil
}

// generateMailboxAddress builds a unique inbound address in the form
// tenant-<base36 millis>@<domain>, retrying with a suffix on collision.
func (s *TenantService) generateMailboxAddress(ctx context.Context) (string, error) {
	base := strconv.FormatInt(time.Now().UnixMilli(), 36)
	for attempt := 0; attempt < 5; attempt++ {
		candidate := fmt.Sprintf("tenant-%s@%s", base, s.mailboxDomain)
		if attempt > 0 {
			candidate = fmt.Sprintf("tenant-%s-%d@%s", base, attempt, s.mailboxDomain)
		}
		taken, err := s.tenants.ExistsByMailbox(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", NewConflictError("tenant", "could not allocate a unique mailbox address")
}
