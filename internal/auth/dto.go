package auth

import (
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/users"
)

// RegisterRequest carries the signup payload.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     string  `json:"name" validate:"required,min=1,max=120"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// LoginRequest carries the credential payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates a refresh token using the expired access token's jti.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse returns the token pair plus the user and, after a guest
// session login, a summary of what happened to the guest cart.
type AuthResponse struct {
	AccessToken   string                `json:"access_token"`
	RefreshToken  string                `json:"refresh_token"`
	User          *users.UserDTO        `json:"user"`
	CartMigration *cart.MigrationResult `json:"cart_migration,omitempty"`
}

// TokenPairResponse is the refresh result.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
