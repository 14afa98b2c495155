package domain

import "time"

// Session is a browser session. The raw session id never touches the DB,
// only its SHA-256 hash. The upstream bearer token is stored sealed.
type Session struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	IDHash      string `json:"-" gorm:"size:64;uniqueIndex;not null"`
	UserID      int64  `json:"user_id" gorm:"index;not null"`
	UserName    string `json:"user_name" gorm:"size:255"`
	UserEmail   string `json:"user_email" gorm:"size:255"`
	IsAdmin     bool   `json:"is_admin" gorm:"not null;default:false"`
	SealedToken []byte `json:"-" gorm:"not null"`

	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index;not null"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
