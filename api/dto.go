package api

import "time"

// LoginRequest accepts an email address or a principal name in Email.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenRequest is the body of introspect, logout and refresh.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type PrincipalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type AuthResponse struct {
	Token         string            `json:"token"`
	Authenticated bool              `json:"authenticated"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Principal     PrincipalResponse `json:"principal"`
}

type IntrospectResponse struct {
	Valid bool `json:"valid"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
