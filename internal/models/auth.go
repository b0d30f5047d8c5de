package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the registered plus application claims carried by access tokens.
type JWTClaims struct {
	UserID       string   `json:"uid"`
	Role         UserRole `json:"role"`
	LecturerCode string   `json:"lecturer_code,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries issued tokens and the authenticated profile.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
