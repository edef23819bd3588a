package models

import (
	"errors"
)

type SignInCredential struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignUpCredential struct {
	UserName string `json:"userName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPassword struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPassword struct {
	Password string `json:"password" binding:"required"`
	Token    string `json:"token,omitempty"`
}

// TokenResponse is the body of sign-in, sign-up and refresh responses.
// Only Token is required; the expiry fields are optional hints.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"` // seconds
	User         *User  `json:"user,omitempty"`
}

// MessageResponse is the conventional error body of the remote API.
type MessageResponse struct {
	Message string `json:"message"`
}

const (
	AuthStatusSuccess = "success"
	AuthStatusFailed  = "failed"
)

// AuthResult is the display form of an authentication attempt, rendered
// by whichever form triggered it.
type AuthResult struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func (r AuthResult) Succeeded() bool {
	return r.Status == AuthStatusSuccess
}

// displayMessage is implemented by errors that carry a user facing message.
type displayMessage interface {
	DisplayMessage() string
}

func NewAuthResult(err error) AuthResult {
	if err == nil {
		return AuthResult{Status: AuthStatusSuccess}
	}

	var dm displayMessage
	if errors.As(err, &dm) {
		return AuthResult{Status: AuthStatusFailed, Message: dm.DisplayMessage()}
	}

	return AuthResult{Status: AuthStatusFailed, Message: err.Error()}
}
