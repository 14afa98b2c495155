package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"spacebook/internal/pkg/response"
	"spacebook/internal/session"
)

const (
	sessionContextKey = "session"
	SessionHeader     = "X-Session-ID"
	sessionQueryParam = "session"
)

// SessionLoader restores a session from the opaque id the browser holds.
type SessionLoader interface {
	Load(ctx context.Context, rawID string) (*session.Session, error)
}

// SessionAuth rejects requests without a live session. The id is read from
// the session cookie, the X-Session-ID header or, for websocket upgrades that
// cannot set headers, the "session" query parameter.
func SessionAuth(loader SessionLoader, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := SessionID(c, cookieName)
		if rawID == "" {
			response.ErrorWithRedirect(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", "/login")
			c.Abort()
			return
		}

		s, err := loader.Load(c.Request.Context(), rawID)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrExpired):
			clearSessionCookie(c, cookieName)
			response.ErrorWithRedirect(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired, please log in again", "/login")
			c.Abort()
			return
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrUnseal):
			clearSessionCookie(c, cookieName)
			response.ErrorWithRedirect(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", "/login")
			c.Abort()
			return
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load session")
			c.Abort()
			return
		}

		c.Set(sessionContextKey, s)
		c.Set("user_id", s.UserID)
		c.Next()
	}
}

// CurrentSession returns the session attached by SessionAuth.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok && s != nil
}

func SessionID(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	if v := strings.TrimSpace(c.GetHeader(SessionHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query(sessionQueryParam))
}

func clearSessionCookie(c *gin.Context, cookieName string) {
	if _, err := c.Cookie(cookieName); err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}
