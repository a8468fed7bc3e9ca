package services

import (
	"errors"
	"fmt"

	"scheduling-service/internal/authz"
)

// ValidationError represents a validation failure on a named field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// ConflictError represents a resource conflict (e.g., already exists)
type ConflictError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

// IsConflictError checks if an error is a ConflictError
func IsConflictError(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}

// NotFoundError represents a resource id that does not resolve
type NotFoundError struct {
	Resource string `json:"resource"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) (*NotFoundError, bool) {
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr, true
	}
	return nil, false
}

// AuthorizationError carries the policy engine's deny reason
type AuthorizationError struct {
	Reason authz.DenyReason `json:"reason"`
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization denied: %s", e.Reason)
}

// NewAuthorizationError creates an authorization error from a deny reason
func NewAuthorizationError(reason authz.DenyReason) *AuthorizationError {
	return &AuthorizationError{Reason: reason}
}

// IsAuthorizationError checks if an error is an AuthorizationError
func IsAuthorizationError(err error) (*AuthorizationError, bool) {
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// Message returns the user-facing message for a deny reason.
func (e *AuthorizationError) Message() string {
	switch e.Reason {
	case authz.ReasonNoTenant:
		return "no tenant is assigned to this account"
	case authz.ReasonAccountDisabled:
		return "this account has been disabled"
	case authz.ReasonCrossTenant:
		return "access to this resource is not permitted"
	case authz.ReasonInsufficientRole:
		return "insufficient permissions for this action"
	case authz.ReasonSelfModification:
		return "you cannot deactivate your own account"
	case authz.ReasonSuperAdminRequired:
		return "super-admin privileges are required"
	}
	return "access denied"
}
