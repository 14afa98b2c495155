package auth

import (
	"time"

	"spacebook/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,min=2"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type UserPublic struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type SessionResponse struct {
	User      UserPublic `json:"user"`
	SessionID string     `json:"session_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	Redirect  string     `json:"redirect,omitempty"`
}

func toUserPublic(s *session.Session) UserPublic {
	return UserPublic{
		ID:      s.UserID,
		Name:    s.Name,
		Email:   s.Email,
		IsAdmin: s.IsAdmin,
	}
}
