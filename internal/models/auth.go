package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claims embedded in issued JWTs.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// RegisterRequest holds the payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest exchanges a refresh token for new tokens.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest asks for a password reset email.
type ForgotPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Language string `json:"language" validate:"omitempty,oneof=TR EN"`
}

// ResetPasswordRequest carries a reset token and the new password.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// TokenResponse is returned from register, login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	User         UserInfo  `json:"user"`
}

// UserInfo is the public shape of a user embedded in token responses.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// JWTClaims are the custom claims carried by issued tokens.
type JWTClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}
