package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
)

type stubProfileStore struct {
	profile *models.Profile
}

func (s *stubProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profile, nil
}

type stubTenantStore struct {
	tenant *models.Tenant
}

func (s *stubTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenant, nil
}

func newAuthRouter(resolver identity.Resolver, profiles ProfileStore, tenants TenantStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authenticate(resolver, profiles, tenants))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentIdentity(c).ID})
	})
	return router
}

func requestWithToken(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	resolver := identity.NewTokenResolver("test-secret", time.Hour)
	router := newAuthRouter(resolver, &stubProfileStore{}, &stubTenantStore{})

	w := requestWithToken(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateAllowsIdentityWithoutProfile(t *testing.T) {
	resolver := identity.NewTokenResolver("test-secret", time.Hour)
	token, _ := resolver.IssueToken(uuid.New(), "new@example.com")
	router := newAuthRouter(resolver, &stubProfileStore{}, &stubTenantStore{})

	w := requestWithToken(router, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateRejectsDisabledAccount(t *testing.T) {
	resolver := identity.NewTokenResolver("test-secret", time.Hour)
	id := uuid.New()
	token, _ := resolver.IssueToken(id, "staff@example.com")

	tenantID := uuid.New()
	profiles := &stubProfileStore{profile: &models.Profile{ID: id, TenantID: &tenantID, Role: models.RoleMember, IsActive: false}}
	router := newAuthRouter(resolver, profiles, &stubTenantStore{})

	// The token itself is still valid; the account state is what rejects it.
	w := requestWithToken(router, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "disabled")
}

func TestAuthenticateRejectsInactiveTenant(t *testing.T) {
	resolver := identity.NewTokenResolver("test-secret", time.Hour)
	id := uuid.New()
	token, _ := resolver.IssueToken(id, "staff@example.com")

	tenantID := uuid.New()
	profiles := &stubProfileStore{profile: &models.Profile{ID: id, TenantID: &tenantID, Role: models.RoleAdmin, IsActive: true}}
	tenants := &stubTenantStore{tenant: &models.Tenant{ID: tenantID, IsActive: false}}
	router := newAuthRouter(resolver, profiles, tenants)

	w := requestWithToken(router, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "deactivated")
}

func TestAuthenticateAllowsActiveMember(t *testing.T) {
	resolver := identity.NewTokenResolver("test-secret", time.Hour)
	id := uuid.New()
	token, _ := resolver.IssueToken(id, "staff@example.com")

	tenantID := uuid.New()
	profiles := &stubProfileStore{profile: &models.Profile{ID: id, TenantID: &tenantID, Role: models.RoleMember, IsActive: true}}
	tenants := &stubTenantStore{tenant: &models.Tenant{ID: tenantID, IsActive: true}}
	router := newAuthRouter(resolver, profiles, tenants)

	w := requestWithToken(router, token)
	assert.Equal(t, http.StatusOK, w.Code)
}
