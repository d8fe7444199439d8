package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Credential is a password account stored in PostgreSQL
type Credential struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UID          string    `json:"uid" gorm:"size:64;uniqueIndex"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Provider values carried in session claims
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// SessionClaims are the claims of a session token issued after sign-in
type SessionClaims struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// SignUpRequest is the body of a password registration
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=1,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignInRequest is the body of a password sign-in
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleSignInRequest carries an identity-provider token to exchange
type GoogleSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}
