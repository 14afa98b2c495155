package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spacebook/internal/apiclient"
	"spacebook/internal/session"
)

type Service struct {
	api      AccountAPI
	sessions SessionManager
	views    ViewForgetter
	logger   *zap.Logger
}

// NewService wires the auth flow. views may be nil.
func NewService(api AccountAPI, sessions SessionManager, views ViewForgetter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, sessions: sessions, views: views, logger: logger}
}

// Login authenticates against the reservation API and opens a session
// holding the returned token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*session.Session, error) {
	resp, err := s.api.Login(ctx, apiclient.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		if apiclient.IsUnauthorized(err) || apiclient.IsValidation(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	sess, err := s.sessions.Open(ctx, resp.User, resp.Token, resp.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.logger.Info("user logged in", zap.Int64("user_id", sess.UserID), zap.String("session", sess.Key()))
	return sess, nil
}

// Register creates the account and logs the user in when the API answers
// with a token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*session.Session, error) {
	resp, err := s.api.Register(ctx, apiclient.RegisterRequest{
		Name:                 strings.TrimSpace(req.Name),
		Email:                strings.TrimSpace(req.Email),
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		if apiclient.IsValidation(err) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.Token == "" {
		return nil, nil
	}

	sess, err := s.sessions.Open(ctx, resp.User, resp.Token, resp.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", sess.UserID))
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if err := s.sessions.Close(ctx, sess.ID); err != nil {
		return err
	}
	if s.views != nil {
		s.views.Forget(sess.Key())
	}
	s.logger.Info("user logged out", zap.Int64("user_id", sess.UserID))
	return nil
}
