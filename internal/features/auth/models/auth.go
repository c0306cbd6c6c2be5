package models

import usermodels "membership-backend/internal/features/user/models"

// LoginRequest carries the credentials presented at login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ana@example.com"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned from login and registration.
type AuthResponse struct {
	Message string                   `json:"message" example:"Login successful"`
	User    *usermodels.UserResponse `json:"user,omitempty"`
	Token   string                   `json:"token,omitempty"`
}
