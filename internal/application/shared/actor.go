// Package shared holds application-layer types used by every use-case
// service: the calling actor and the transaction scope.
package shared

import (
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is the caller's role as asserted by the upstream gateway
type Role string

const (
	RoleManager Role = "manager"
	RoleDriver  Role = "driver"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	return r == RoleManager || r == RoleDriver
}

// Actor identifies who performs an operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// NewActor creates an actor after checking the role
func NewActor(userID uuid.UUID, role Role) (Actor, error) {
	if userID == uuid.Nil {
		return Actor{}, shared.NewForbiddenError("User ID is required")
	}
	if !role.IsValid() {
		return Actor{}, shared.NewForbiddenError("Unknown role: %s", role)
	}
	return Actor{UserID: userID, Role: role}, nil
}

// IsManager reports whether the actor has full control
func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

// RequireManager fails with Forbidden for anyone but a manager
func (a Actor) RequireManager() error {
	if !a.IsManager() {
		return shared.NewForbiddenError("Manager role required")
	}
	return nil
}
