// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Company  string `json:"company"  validate:"required,min=1,max=150"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AccountResponse describes whoever just authenticated. Role is nil for
// commercial owners; trial fields are nil for operational users.
type AccountResponse struct {
	ID          int        `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        *string    `json:"role,omitempty"`
	OwnerID     *int       `json:"owner_id,omitempty"`
	Company     string     `json:"company,omitempty"`
	InTrial     *bool      `json:"in_trial,omitempty"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

type AuthResponse struct {
	User   AccountResponse `json:"user"`
	Tokens TokenResponse   `json:"tokens"`
}
