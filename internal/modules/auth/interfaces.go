package auth

import (
	"context"

	"spacebook/internal/apiclient"
	"spacebook/internal/domain"
	"spacebook/internal/session"
)

// AccountAPI is the part of the reservation API the auth service uses.
type AccountAPI interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.AuthResponse, error)
}

// SessionManager opens and closes server-side sessions.
type SessionManager interface {
	Open(ctx context.Context, user domain.User, token string, expiresIn int) (*session.Session, error)
	Close(ctx context.Context, rawID string) error
}

// ViewForgetter drops the per-view request state of a session.
type ViewForgetter interface {
	Forget(owner string)
}
