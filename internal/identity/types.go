package identity

import (
	"context"
	"time"
)

// Role is the access level carried by a user and their tokens.
type Role string

const (
	RolePlayer    Role = "PLAYER"
	RoleClubAdmin Role = "CLUB_ADMIN"
	RoleStaff     Role = "STAFF"
)

// String returns the stored role value.
func (role Role) String() string {
	return string(role)
}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RolePlayer, RoleClubAdmin, RoleStaff:
		return Role(raw), nil
	}
	return "", ErrInvalidRole
}

// User is a stored user record. The password hash never leaves the package.
type User struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	ClubID       *string
	Language     string
	CreatedAt    time.Time
}

// Profile is the credential-free view returned to clients.
type Profile struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ClubID    *string   `json:"clubId"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the verified caller attached to a request. Domain operations
// receive it explicitly; club-scoped views derive their club filter from it
// and never from caller input.
type Identity struct {
	UserID string
	Role   Role
	ClubID string
}

// Session pairs a profile with its bearer token.
type Session struct {
	User        Profile `json:"user"`
	AccessToken string  `json:"accessToken"`
}

// Store is the persistence contract used by Service.
type Store interface {
	CreateUser(ctx context.Context, user User) (User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
}
