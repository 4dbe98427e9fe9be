package models

import (
	"time"
)

// Roles a session can carry. Guests never have an account record; the guest
// role exists only so unauthenticated sessions have an explicit identity.
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string     `json:"id" bson:"_id"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	DisplayName  string     `json:"display_name" bson:"display_name"`
	Role         string     `json:"role" bson:"role"`
	Reputation   int        `json:"reputation" bson:"reputation"`
	IsBanned     bool       `json:"is_banned" bson:"is_banned"`
	BanReason    string     `json:"ban_reason,omitempty" bson:"ban_reason,omitempty"`
	BannedAt     *time.Time `json:"banned_at,omitempty" bson:"banned_at,omitempty"`
	BannedBy     string     `json:"banned_by,omitempty" bson:"banned_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

// ReputationEvent is one entry of the append-only reputation ledger.
// The live User.Reputation counter equals the sum of Change over the
// user's ledger entries.
type ReputationEvent struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Change    int       `json:"change" bson:"change"`
	Reason    string    `json:"reason" bson:"reason"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type BanRequest struct {
	Reason string `json:"reason"`
}

func (r *RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if len(r.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters"
	}
	if r.DisplayName == "" {
		errors["display_name"] = "Display name is required"
	}

	return errors
}

func (r *LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}
