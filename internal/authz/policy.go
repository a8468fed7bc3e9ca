// Package authz is the single authorization decision point. Every handler
// resolves the caller and asks the engine before touching tenant-scoped
// data; no endpoint re-implements its own role or tenant checks.
package authz

import (
	"strings"

	"github.com/google/uuid"

	"scheduling-service/internal/identity"
	"scheduling-service/internal/models"
)

// Action names an operation being authorized.
type Action string

const (
	// Tenant administration (platform scope).
	ActionListTenants        Action = "tenants.list"
	ActionToggleTenantActive Action = "tenants.toggle_active"
	ActionCreateTenant       Action = "tenants.create"

	// Case data (tenant scope).
	ActionCreateCase Action = "cases.create"
	ActionReadCase   Action = "cases.read"
	ActionUpdateCase Action = "cases.update"
	ActionManageSlot Action = "slots.manage"

	// User management (tenant scope, admin only).
	ActionListUsers        Action = "users.list"
	ActionCreateUser       Action = "users.create"
	ActionToggleUserActive Action = "users.toggle_active"
)

// DenyReason explains a denial. Reasons are part of the API surface: they
// select the user-facing message.
type DenyReason string

const (
	ReasonNoTenant           DenyReason = "NoTenant"
	ReasonAccountDisabled    DenyReason = "AccountDisabled"
	ReasonCrossTenant        DenyReason = "CrossTenant"
	ReasonInsufficientRole   DenyReason = "InsufficientRole"
	ReasonSelfModification   DenyReason = "SelfModification"
	ReasonSuperAdminRequired DenyReason = "SuperAdminRequired"
)

// Resource describes the target of an action. Only the fields relevant to
// the action need to be set.
type Resource struct {
	// TenantID is the owning tenant, fetched fresh from storage by the
	// caller, never taken from the client.
	TenantID *uuid.UUID
	// OwnerID is the creating profile for case-level ownership checks.
	OwnerID *uuid.UUID
	// TargetProfileID is the profile being acted on for user management.
	TargetProfileID *uuid.UUID
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Allowed: false, Reason: r} }

// Engine evaluates authorization rules. It is pure: no storage access, no
// caching, no side effects. Callers re-check on every request because
// profile and tenant state can change between requests.
type Engine struct {
	superAdminEmail string
}

// NewEngine creates an engine. An empty superAdminEmail disables the
// super-admin gate globally.
func NewEngine(superAdminEmail string) *Engine {
	return &Engine{superAdminEmail: strings.ToLower(strings.TrimSpace(superAdminEmail))}
}

// IsSuperAdmin reports whether the identity matches the configured
// super-admin email. Independent of the profile store: it must work even
// when no profile row exists. Never errors.
func (e *Engine) IsSuperAdmin(ident *identity.Identity) bool {
	if e.superAdminEmail == "" || ident == nil {
		return false
	}
	return strings.ToLower(ident.Email) == e.superAdminEmail
}

// Authorize evaluates the rules in order; first match wins.
//
// A super-admin is allowed tenant-administration actions only. For case,
// slot and user data the ordinary tenant-scoping rules below still apply,
// so a super-admin who is not a member of the owning tenant is denied.
func (e *Engine) Authorize(ident *identity.Identity, profile *models.Profile, res Resource, action Action) Decision {
	// Rule 1: super-admin gate for tenant administration.
	if isTenantAdminAction(action) {
		if e.IsSuperAdmin(ident) {
			return allow()
		}
		if action != ActionCreateTenant {
			return deny(ReasonSuperAdminRequired)
		}
		// Tenant creation falls through: any active profile may provision.
	}

	// Rule 2: everything below needs tenant membership.
	if profile == nil {
		return deny(ReasonNoTenant)
	}

	// Rule 3: disabled accounts are rejected even on a still-valid token.
	if !profile.IsActive {
		return deny(ReasonAccountDisabled)
	}

	if action == ActionCreateTenant {
		return allow()
	}

	// Rule 4: tenant scoping.
	if res.TenantID != nil {
		if profile.TenantID == nil || *res.TenantID != *profile.TenantID {
			return deny(ReasonCrossTenant)
		}
	}

	// Rule 5: members only see their own cases; admins see the tenant's.
	if action == ActionReadCase && profile.Role != models.RoleAdmin {
		if res.OwnerID == nil || *res.OwnerID != profile.ID {
			return deny(ReasonInsufficientRole)
		}
	}

	// Rule 6: nobody deactivates their own profile, whatever the role.
	if action == ActionToggleUserActive && res.TargetProfileID != nil && *res.TargetProfileID == profile.ID {
		return deny(ReasonSelfModification)
	}

	// Rule 7: account-management actions need the admin role.
	if isAdminOnlyAction(action) && profile.Role != models.RoleAdmin {
		return deny(ReasonInsufficientRole)
	}

	return allow()
}

// OwnCasesOnly reports whether case listings for this profile must be
// filtered to created_by == profile.ID (rule 5 applied to collections).
func (e *Engine) OwnCasesOnly(profile *models.Profile) bool {
	return profile != nil && profile.Role != models.RoleAdmin
}

func isTenantAdminAction(a Action) bool {
	switch a {
	case ActionListTenants, ActionToggleTenantActive, ActionCreateTenant:
		return true
	}
	return false
}

func isAdminOnlyAction(a Action) bool {
	switch a {
	case ActionListUsers, ActionCreateUser, ActionToggleUserActive:
		return true
	}
	return false
}
