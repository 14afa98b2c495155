package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"spacebook/internal/domain"
	"spacebook/internal/pkg/jwt"
)

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByHash(ctx context.Context, hash string) (*domain.Session, error)
	Touch(ctx context.Context, id int64, at time.Time) error
	DeleteByHash(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenDecoder reads the claims of an API bearer token. Verifies reports
// whether Decode checks signatures.
type TokenDecoder interface {
	Decode(token string) (*jwt.Claims, error)
	Verifies() bool
}

// Session is the authenticated context handed to everything that calls the
// reservation API on behalf of a browser.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`

	hash  string
	token string
}

func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Key identifies the session in logs and per-session state without exposing
// the raw id.
func (s *Session) Key() string {
	if s == nil || len(s.hash) < 16 {
		return ""
	}
	return s.hash[:16]
}

type Service struct {
	store  Store
	sealer *Sealer
	tokens TokenDecoder
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store Store, sealer *Sealer, tokens TokenDecoder, ttl time.Duration) *Service {
	return &Service{
		store:  store,
		sealer: sealer,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Open starts a session for a user the API just authenticated. The session
// never outlives the token: its expiry is the earliest of the token "exp"
// claim, the API's expires_in and the configured TTL. When the decoder
// verifies signatures, a token that fails decoding opens nothing.
func (s *Service) Open(ctx context.Context, user domain.User, token string, expiresIn int) (*Session, error) {
	if token == "" {
		return nil, errors.New("empty api token")
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	if expiresIn > 0 {
		if t := now.Add(time.Duration(expiresIn) * time.Second); t.Before(expiresAt) {
			expiresAt = t
		}
	}

	claims, err := s.tokens.Decode(token)
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, ErrExpired
	case err != nil && s.tokens.Verifies():
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case err == nil:
		if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(expiresAt) {
			expiresAt = claims.ExpiresAt.UTC()
		}
		if user.ID == 0 {
			user = domain.User{ID: domain.ID(claims.UserID), Name: claims.Name, Email: claims.Email, IsAdmin: claims.IsAdmin}
		}
	}
	if user.ID == 0 {
		return nil, errors.New("api did not identify the user")
	}

	sealed, err := s.sealer.Seal([]byte(token))
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		rawID, err := newSessionID()
		if err != nil {
			return nil, err
		}
		row := &domain.Session{
			IDHash:      hashID(rawID),
			UserID:      user.ID.Int64(),
			UserName:    user.Name,
			UserEmail:   user.Email,
			IsAdmin:     user.IsAdmin,
			SealedToken: sealed,
			CreatedAt:   now,
			LastSeenAt:  now,
			ExpiresAt:   expiresAt,
		}
		err = s.store.Create(ctx, row)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return fromRow(rawID, row, token), nil
	}
	return nil, ErrDuplicate
}

// Load restores the session behind a raw session id. Expired sessions are
// deleted, like a client dropping an expired token.
func (s *Service) Load(ctx context.Context, rawID string) (*Session, error) {
	if rawID == "" {
		return nil, ErrNotFound
	}
	hash := hashID(rawID)

	row, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if row.IsExpired(now) {
		_ = s.store.DeleteByHash(ctx, hash)
		return nil, ErrExpired
	}

	token, err := s.sealer.Open(row.SealedToken)
	if err != nil {
		_ = s.store.DeleteByHash(ctx, hash)
		return nil, err
	}

	_ = s.store.Touch(ctx, row.ID, now)

	return fromRow(rawID, row, string(token)), nil
}

func (s *Service) Close(ctx context.Context, rawID string) error {
	if rawID == "" {
		return nil
	}
	return s.store.DeleteByHash(ctx, hashID(rawID))
}

func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now().UTC())
}

func fromRow(rawID string, row *domain.Session, token string) *Session {
	return &Session{
		ID:        rawID,
		UserID:    row.UserID,
		Name:      row.UserName,
		Email:     row.UserEmail,
		IsAdmin:   row.IsAdmin,
		ExpiresAt: row.ExpiresAt,
		hash:      row.IDHash,
		token:     token,
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashID(rawID string) string {
	sum := sha256.Sum256([]byte(rawID))
	return hex.EncodeToString(sum[:])
}
