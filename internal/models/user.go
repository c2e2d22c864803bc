// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered forum member.
// Rating is derived state: the sum of vote scores across every post and
// comment the user authored. It is recomputed from the votes table, never
// incremented in place.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Login         string    `gorm:"unique;not null" json:"login"`
	Email         string    `gorm:"unique;not null" json:"email"`
	FullName      string    `json:"full_name"`
	Avatar        string    `json:"avatar"`
	Role          string    `gorm:"not null;default:user" json:"role"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	Rating        int       `gorm:"not null;default:0" json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AsActor converts the stored user into the per-request actor shape.
func (u *User) AsActor() Actor {
	return Actor{
		ID:            u.ID,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}
