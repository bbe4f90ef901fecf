package dto

import "github.com/finanbot/finanbot/internal/models"

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type UserUpdateRequest struct {
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

type LoginResponse struct {
	TokenResponse
	User models.User `json:"user"`
}
