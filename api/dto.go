package api

import "github.com/kbukum/careerauth/account"

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FindAccountRequest is the body of POST /find-account.
type FindAccountRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyAnswerRequest is the body of POST /verify-security-answer.
type VerifyAnswerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	SecurityAnswer string `json:"securityAnswer" validate:"required"`
}

// ResetPasswordRequest is the body of POST /reset-password.
type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// AuthResponse is returned by the flows that authenticate the caller.
type AuthResponse struct {
	User  account.View `json:"user"`
	Token string       `json:"token"`
}

// UserResponse wraps a single account.
type UserResponse struct {
	User account.View `json:"user"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
