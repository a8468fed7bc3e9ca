package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
	"scheduling-service/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTenantService(tenants *MockTenantRepository, profiles *MockProfileRepository, identities *MockIdentityStore, superAdmin string) *TenantService {
	return NewTenantService(tenants, profiles, identities, authz.NewEngine(superAdmin), nil, "inbound.example.com", testLogger())
}

func callerWithProfile(role string) (*identity.Identity, *models.Profile) {
	tenantID := uuid.New()
	ident := &identity.Identity{ID: uuid.New(), Email: "caller@example.com"}
	profile := &models.Profile{ID: ident.ID, TenantID: &tenantID, Role: role, IsActive: true}
	return ident, profile
}

func TestProvisionTenantSuccess(t *testing.T) {
	tenants := new(MockTenantRepository)
	profiles := new(MockProfileRepository)
	identities := new(MockIdentityStore)
	svc := newTenantService(tenants, profiles, identities, "")

	ident, profile := callerWithProfile(models.RoleAdmin)
	newIdent := &models.Identity{ID: uuid.New(), Email: "admin@newco.jp"}

	tenants.On("ExistsByMailbox", mock.Anything, mock.Anything).Return(false, nil)
	tenants.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(nil)
	identities.On("GetByEmail", mock.Anything, "admin@newco.jp").Return(nil, nil)
	identities.On("Create", mock.Anything, "admin@newco.jp", mock.Anything).Return(newIdent, nil)
	profiles.On("Create", mock.Anything, mock.AnythingOfType("*models.Profile")).Return(nil)

	result, err := svc.ProvisionTenant(context.Background(), ident, profile, &ProvisionTenantRequest{
		TenantName: "NewCo",
		AdminEmail: "Admin@NewCo.jp",
	})

	assert.NoError(t, err)
	assert.Equal(t, "NewCo", result.Tenant.Name)
	assert.Equal(t, newIdent.ID, result.AdminID)
	assert.Equal(t, models.RoleAdmin, result.Role)
	assert.Len(t, result.Password, identity.TemporaryPasswordLength)
	assert.Contains(t, result.Tenant.MailboxAddress, "@inbound.example.com")

	profiles.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
		return p.ID == newIdent.ID && p.Role == models.RoleAdmin && p.IsActive && p.ForcePasswordReset
	}))
	identities.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	tenants.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProvisionTenantChosenPasswordNeedsNoReset(t *testing.T) {
	tenants := new(MockTenantRepository)
	profiles := new(MockProfileRepository)
	identities := new(MockIdentityStore)
	svc := newTenantService(tenants, profiles, identities, "")

	ident, profile := callerWithProfile(models.RoleAdmin)
	newIdent := &models.Identity{ID: uuid.New(), Email: "admin@newco.jp"}

	tenants.On("ExistsByMailbox", mock.Anything, mock.Anything).Return(false, nil)
	tenants.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(nil)
	identities.On("GetByEmail", mock.Anything, "admin@newco.jp").Return(nil, nil)
	identities.On("Create", mock.Anything, "admin@newco.jp", "chosen-password-1").Return(newIdent, nil)
	profiles.On("Create", mock.Anything, mock.AnythingOfType("*models.Profile")).Return(nil)

	result, err := svc.ProvisionTenant(context.Background(), ident, profile, &ProvisionTenantRequest{
		TenantName:    "NewCo",
		AdminEmail:    "admin@newco.jp",
		AdminPassword: "chosen-password-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "chosen-password-1", result.Password)
	profiles.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
		return p.ID == newIdent.ID && !p.ForcePasswordReset
	}))
}

func TestProvisionTenantRollsBackOnProfileFailure(t *testing.T) {
	tenants := new(MockTenantRepository)
	profiles := new(MockProfileRepository)
	identities := new(MockIdentityStore)
	svc := newTenantService(tenants, profiles, identities, "")

	ident, profile := callerWithProfile(models.RoleAdmin)
	newIdent := &models.Identity{ID: uuid.New(), Email: "admin@newco.jp"}

	tenants.On("ExistsByMailbox", mock.Anything, mock.Anything).Return(false, nil)
	tenants.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(nil)
	identities.On("GetByEmail", mock.Anything, "admin@newco.jp").Return(nil, nil)
	identities.On("Create", mock.Anything, "admin@newco.jp", mock.Anything).Return(newIdent, nil)
	profiles.On("Create", mock.Anything, mock.AnythingOfType("*models.Profile")).Return(errors.New("insert failed"))
	identities.On("Delete", mock.Anything, newIdent.ID).Return(nil)
	tenants.On("Delete", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)

	_, err := svc.ProvisionTenant(context.Background(), ident, profile, &ProvisionTenantRequest{
		TenantName: "NewCo",
		AdminEmail: "admin@newco.jp",
	})

	assert.Error(t, err)
	identities.AssertCalled(t, "Delete", mock.Anything, newIdent.ID)
	tenants.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("uuid.UUID"))
}

func TestProvisionTenantReusedIdentityNotDeleted(t *testing.T) {
	tenants := new(MockTenantRepository)
	profiles := new(MockProfileRepository)
	identities := new(MockIdentityStore)
	svc := newTenantService(tenants, profiles, identities, "")

	ident, profile := callerWithProfile(models.RoleAdmin)
	existing := &models.Identity{ID: uuid.New(), Email: "admin@newco.jp"}

	tenants.On("ExistsByMailbox", mock.Anything, mock.Anything).Return(false, nil)
	tenants.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(nil)
	identities.On("GetByEmail", mock.Anything, "admin@newco.jp").Return(existing, nil)
	profiles.On("Create", mock.Anything, mock.AnythingOfType("*models.Profile")).Return(errors.New("insert failed"))
	tenants.On("Delete", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)

	_, err := svc.ProvisionTenant(context.Background(), ident, profile, &ProvisionTenantRequest{
		TenantName: "NewCo",
		AdminEmail: "admin@newco.jp",
	})

	assert.Error(t, err)
	identities.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	tenants.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("uuid.UUID"))
}

func TestProvisionTenantValidation(t *testing.T) {
	svc := newTenantService(new(MockTenantRepository), new(MockProfileRepository), new(MockIdentityStore), "")
	ident, profile := callerWithProfile(models.RoleMember)

	_, err := svc.ProvisionTenant(context.Background(), ident, profile, &ProvisionTenantRequest{
		TenantName: "  ",
		AdminEmail: "admin@newco.jp",
	})
	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "tenant_name", ve.Field)

	_, err = svc.ProvisionTenant(context.Background(), ident, profile, &ProvisionTenantRequest{
		TenantName: "NewCo",
		AdminEmail: "not-an-email",
	})
	ve, ok = IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "admin_email", ve.Field)
}

func TestProvisionTenantDeniedWithoutProfile(t *testing.T) {
	svc := newTenantService(new(MockTenantRepository), new(MockProfileRepository), new(MockIdentityStore), "ops@example.com")

	_, err := svc.ProvisionTenant(context.Background(),
		&identity.Identity{ID: uuid.New(), Email: "stranger@example.com"}, nil,
		&ProvisionTenantRequest{TenantName: "NewCo", AdminEmail: "admin@newco.jp"})

	ae, ok := IsAuthorizationError(err)
	assert.True(t, ok)
	assert.Equal(t, authz.ReasonNoTenant, ae.Reason)
}

func TestListTenantsWithStatsSuperAdminOnly(t *testing.T) {
	tenants := new(MockTenantRepository)
	svc := newTenantService(tenants, new(MockProfileRepository), new(MockIdentityStore), "ops@example.com")

	tenantA := models.Tenant{ID: uuid.New(), Name: "A"}
	tenantB := models.Tenant{ID: uuid.New(), Name: "B"}
	tenants.On("List", mock.Anything).Return([]models.Tenant{tenantA, tenantB}, nil)
	tenants.On("GetStats", mock.Anything, tenantA.ID).Return(&repository.TenantStats{UserCount: 3, CaseCount: 7}, nil)
	tenants.On("GetStats", mock.Anything, tenantB.ID).Return(&repository.TenantStats{UserCount: 1, CaseCount: 0}, nil)

	superAdmin := &identity.Identity{ID: uuid.New(), Email: "ops@example.com"}
	out, err := svc.ListTenantsWithStats(context.Background(), superAdmin, nil)
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int64(3), out[0].UserCount)
	assert.Equal(t, int64(7), out[0].CaseCount)

	// Tenant admins are not platform operators.
	ident, profile := callerWithProfile(models.RoleAdmin)
	_, err = svc.ListTenantsWithStats(context.Background(), ident, profile)
	ae, ok := IsAuthorizationError(err)
	assert.True(t, ok)
	assert.Equal(t, authz.ReasonSuperAdminRequired, ae.Reason)
}

func TestToggleTenantActive(t *testing.T) {
	tenants := new(MockTenantRepository)
	svc := newTenantService(tenants, new(MockProfileRepository), new(MockIdentityStore), "ops@example.com")

	superAdmin := &identity.Identity{ID: uuid.New(), Email: "ops@example.com"}
	tenantID := uuid.New()

	tenants.On("SetActive", mock.Anything, tenantID, false).Return(true, nil)
	assert.NoError(t, svc.ToggleTenantActive(context.Background(), superAdmin, nil, tenantID, false))

	missing := uuid.New()
	tenants.On("SetActive", mock.Anything, missing, false).Return(false, nil)
	err := svc.ToggleTenantActive(context.Background(), superAdmin, nil, missing, false)
	_, ok := IsNotFoundError(err)
	assert.True(t, ok)
}
