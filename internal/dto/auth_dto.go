package dto

import "github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"

type RegisterRequest struct {
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	FullName    string             `json:"full_name"`
	ProfileType models.ProfileType `json:"profile_type"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	TenantID    string             `json:"tenant_id"`
	ProfileType models.ProfileType `json:"profile_type"`
	Role        models.Role        `json:"role,omitempty"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DB          string `json:"db"`
	TenantCount int    `json:"tenant_count"`
}
