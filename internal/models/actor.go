package models

// Role values carried by an Actor.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor is the per-request identity resolved by the authentication layer.
// A zero-valued Actor (ID == 0) is an anonymous viewer. The engine never
// loads or stores actors itself; it only evaluates policy against them.
type Actor struct {
	ID            uint   `json:"id"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Anonymous reports whether the actor is an unauthenticated viewer.
func (a Actor) Anonymous() bool {
	return a.ID == 0
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
