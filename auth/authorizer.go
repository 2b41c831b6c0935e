package auth

import (
	"context"
	"fmt"
)

// Authorizer determines if an identity is allowed to perform an action.
type Authorizer interface {
	// Authorize returns nil if permitted, or an error (typically *AuthzError).
	Authorize(ctx context.Context, req *AuthzRequest) error

	// Name returns a unique identifier for this authorizer.
	Name() string
}

// AuthzRequest contains the information needed for authorization.
type AuthzRequest struct {
	// Subject is the identity making the request.
	Subject *Identity

	// Resource is the target resource, e.g. "/admin/reset".
	Resource string

	// Action is the requested action, e.g. the HTTP method.
	Action string
}

// AuthzError represents an authorization failure. It matches ErrForbidden.
type AuthzError struct {
	Subject  string
	Resource string
	Action   string
	Reason   string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q resource=%q action=%q reason=%q",
		e.Subject, e.Resource, e.Action, e.Reason)
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// RoleAuthorizer permits identities holding Role.
type RoleAuthorizer struct {
	Role string
}

// RequireRole returns an Authorizer that permits identities holding role.
// An empty role permits every authenticated identity.
func RequireRole(role string) RoleAuthorizer {
	return RoleAuthorizer{Role: role}
}

// Authorize checks the subject's roles.
func (a RoleAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject == nil || req.Subject.IsAnonymous() {
		return &AuthzError{Resource: req.Resource, Action: req.Action, Reason: "anonymous"}
	}
	if a.Role == "" || req.Subject.HasRole(a.Role) {
		return nil
	}
	return &AuthzError{
		Subject:  req.Subject.Principal,
		Resource: req.Resource,
		Action:   req.Action,
		Reason:   "missing role " + a.Role,
	}
}

// Name returns "role".
func (a RoleAuthorizer) Name() string {
	return "role"
}

// AllowAllAuthorizer permits all requests.
type AllowAllAuthorizer struct{}

// Authorize always returns nil (permitted).
func (AllowAllAuthorizer) Authorize(context.Context, *AuthzRequest) error {
	return nil
}

// Name returns "allow_all".
func (AllowAllAuthorizer) Name() string {
	return "allow_all"
}

var (
	_ Authorizer = RoleAuthorizer{}
	_ Authorizer = AllowAllAuthorizer{}
)
