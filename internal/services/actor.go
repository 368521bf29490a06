package services

import "github.com/example/storefront/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   models.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uint) bool {
	return a.UserID == userID
}
