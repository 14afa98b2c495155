package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Service reads the bearer tokens issued by the reservation API. With a
// secret the HS256 signature is verified; without one the claims are read as
// is, the API remaining the authority on every call.
type Service struct {
	secret []byte
	now    func() time.Time
}

// Claims is the user snapshot carried by an API token.
type Claims struct {
	UserID    int64
	Name      string
	Email     string
	IsAdmin   bool
	ExpiresAt time.Time
}

func New(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (s *Service) Verifies() bool {
	return len(s.secret) > 0
}

func (s *Service) Decode(tokenStr string) (*Claims, error) {
	mc := jwtlib.MapClaims{}

	if s.Verifies() {
		token, err := jwtlib.ParseWithClaims(tokenStr, mc, func(t *jwtlib.Token) (any, error) {
			return s.secret, nil
		}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(s.now))
		if err != nil {
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				return nil, ErrExpiredToken
			}
			return nil, ErrInvalidToken
		}
		if !token.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		if _, _, err := jwtlib.NewParser().ParseUnverified(tokenStr, mc); err != nil {
			return nil, ErrInvalidToken
		}
	}

	claims, err := fromMap(mc)
	if err != nil {
		return nil, err
	}
	if !claims.ExpiresAt.IsZero() && !s.now().Before(claims.ExpiresAt) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

// GenerateToken signs claims the way the API does. Used by tooling and tests.
func (s *Service) GenerateToken(c Claims) (string, error) {
	if !s.Verifies() {
		return "", errors.New("no signing secret configured")
	}
	mc := jwtlib.MapClaims{
		"sub":      strconv.FormatInt(c.UserID, 10),
		"name":     c.Name,
		"email":    c.Email,
		"is_admin": c.IsAdmin,
		"iat":      s.now().Unix(),
	}
	if !c.ExpiresAt.IsZero() {
		mc["exp"] = c.ExpiresAt.Unix()
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, mc).SignedString(s.secret)
}

func fromMap(mc jwtlib.MapClaims) (*Claims, error) {
	c := &Claims{}

	id, ok := numericClaim(mc["sub"])
	if !ok {
		id, ok = numericClaim(mc["user_id"])
	}
	if !ok || id <= 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	c.UserID = id

	c.Name, _ = mc["name"].(string)
	c.Email, _ = mc["email"].(string)
	c.IsAdmin, _ = mc["is_admin"].(bool)

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func numericClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
