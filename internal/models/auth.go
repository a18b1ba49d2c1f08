package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest creates a new account. Profile fields beyond these go through the student update.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  string `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,min=10,max=20"`
	Password  string `json:"password" validate:"required,min=8,max=255"`
}

// LoginRequest holds credentials for authenticating a student account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo describes the authenticated account in responses.
type UserInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	User      UserInfo `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// NewUserInfo projects a student onto the public account shape.
func NewUserInfo(s Student) UserInfo {
	return UserInfo{
		ID:        s.ID,
		Name:      s.FullName(),
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}
