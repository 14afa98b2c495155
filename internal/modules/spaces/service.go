package spaces

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spacebook/internal/apiclient"
	"spacebook/internal/availability"
	"spacebook/internal/cache"
	"spacebook/internal/domain"
	"spacebook/internal/notification"
	"spacebook/internal/pkg/validator"
	"spacebook/internal/session"
)

var fieldMessages = map[string]struct{ key, message string }{
	"Name":     {"name", "Name is required"},
	"Type":     {"type", "Type is required"},
	"Capacity": {"capacity", "Capacity must be at least 1"},
}

type Service struct {
	api      SpaceAPI
	cache    LastGoodCache
	notifier Notifier
	logger   *zap.Logger
}

func NewService(api SpaceAPI, lastGood LastGoodCache, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, cache: lastGood, notifier: notifier, logger: logger}
}

// List returns the filtered space list. A complete date/time window is sent
// to the API as an availability query; type and capacity are always applied
// locally. When the API fails the last good unconstrained list is served
// marked stale; only unconstrained lists are remembered.
func (s *Service) List(ctx context.Context, sess *session.Session, c availability.Criteria) (*ListView, error) {
	q := apiclient.AvailabilityQuery{}
	windowed := c.NeedsAvailabilityQuery()
	if windowed {
		q = apiclient.AvailabilityQuery{
			Date:      strings.TrimSpace(c.Date),
			StartTime: strings.TrimSpace(c.StartTime),
			EndTime:   strings.TrimSpace(c.EndTime),
		}
	}

	stale := false
	all, err := s.api.ListSpaces(ctx, sess, q)
	if err != nil {
		// A cached full list says nothing about availability in a window.
		if windowed {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		cached, cacheErr := s.cache.Get(ctx, sess.UserID)
		if cacheErr != nil {
			if !errors.Is(cacheErr, cache.ErrCacheMiss) {
				s.logger.Warn("space cache lookup failed", zap.Error(cacheErr))
			}
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		s.logger.Warn("serving stale space list", zap.Int64("user_id", sess.UserID), zap.Error(err))
		all, stale = cached, true
	} else if !windowed {
		s.cache.Set(ctx, sess.UserID, all)
	}

	filtered := availability.Filter(all, c)
	return &ListView{
		Spaces:      spaceItems(filtered),
		Total:       len(filtered),
		Types:       availability.ExtractUniqueTypes(all),
		TimeOptions: availability.FullDaySlots(),
		Criteria:    c,
		IsAdmin:     sess.IsAdmin,
		Stale:       stale,
	}, nil
}

// Get finds a space by id in the full list; the API has no single-space
// endpoint.
func (s *Service) Get(ctx context.Context, sess *session.Session, id int64) (*domain.Space, error) {
	all, err := s.api.ListSpaces(ctx, sess, apiclient.AvailabilityQuery{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	space, ok := domain.FindSpace(all, id)
	if !ok {
		return nil, ErrSpaceNotFound
	}
	return space, nil
}

func (s *Service) CreateForm() *FormView {
	return &FormView{Form: formMeta(modeCreate), TypeOptions: domain.SpaceTypeOptions}
}

func (s *Service) EditForm(ctx context.Context, sess *session.Session, id int64) (*FormView, error) {
	space, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return &FormView{Space: space, Form: formMeta(modeEdit), TypeOptions: domain.SpaceTypeOptions}, nil
}

func (s *Service) Create(ctx context.Context, sess *session.Session, req SpaceRequest) (*domain.Space, error) {
	if err := s.validate(sess, req); err != nil {
		return nil, err
	}

	created, err := s.api.CreateSpace(ctx, sess, toPayload(req))
	if err != nil {
		s.notifyFailure(sess, err, "Failed to create space. Please try again.", "Creation Failed")
		return nil, upstreamError(err)
	}

	s.invalidate(ctx)
	s.notifier.Notify(sess.UserID, notification.KindSuccess, fmt.Sprintf("Space %q has been created successfully", req.Name), "")
	return created, nil
}

func (s *Service) Update(ctx context.Context, sess *session.Session, id int64, req SpaceRequest) (*domain.Space, error) {
	if err := s.validate(sess, req); err != nil {
		return nil, err
	}

	updated, err := s.api.UpdateSpace(ctx, sess, id, toPayload(req))
	if err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrSpaceNotFound
		}
		s.notifyFailure(sess, err, "Failed to update space. Please try again.", "Update Failed")
		return nil, upstreamError(err)
	}

	s.invalidate(ctx)
	s.notifier.Notify(sess.UserID, notification.KindSuccess, fmt.Sprintf("Space %q has been updated successfully", req.Name), "")
	return updated, nil
}

// Delete removes a space once the caller confirmed. Without confirmation
// nothing changes and the prompt to show is returned.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id int64, confirmed bool) (*DeleteResult, error) {
	space, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if !confirmed {
		return &DeleteResult{
			Status: "confirmation_required",
			Prompt: fmt.Sprintf("Are you sure you want to delete the space %q? This action cannot be undone.", space.Name),
		}, nil
	}

	if err := s.api.DeleteSpace(ctx, sess, id); err != nil {
		s.notifyFailure(sess, err, "Failed to delete space. Please try again.", "Delete Failed")
		return nil, upstreamError(err)
	}

	s.invalidate(ctx)
	msg := fmt.Sprintf("Space %q has been deleted successfully", space.Name)
	s.notifier.Notify(sess.UserID, notification.KindSuccess, msg, "")
	return &DeleteResult{Status: "deleted", Message: msg, Redirect: "/spaces"}, nil
}

func (s *Service) validate(sess *session.Session, req SpaceRequest) error {
	errs := validator.Validate(req)
	if strings.TrimSpace(req.Name) == "" {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["Name"] = "required"
	}
	if errs == nil {
		return nil
	}

	fields := FieldErrors{}
	for field := range errs {
		if m, ok := fieldMessages[field]; ok {
			fields[m.key] = m.message
		}
	}
	s.notifier.Notify(sess.UserID, notification.KindError, "Please fix the form errors", "Validation Error")
	return fields
}

func (s *Service) notifyFailure(sess *session.Session, err error, fallback, title string) {
	msg := fallback
	if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.Message != "" {
		msg = apiErr.Message
	}
	s.notifier.Notify(sess.UserID, notification.KindError, msg, title)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("space cache invalidation failed", zap.Error(err))
	}
}

func toPayload(req SpaceRequest) apiclient.SpacePayload {
	p := apiclient.SpacePayload{
		Name:     strings.TrimSpace(req.Name),
		Type:     req.Type,
		Capacity: req.Capacity,
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.PricePerHour != nil && *req.PricePerHour > 0 {
		price := *req.PricePerHour
		p.PricePerHour = &price
	}
	return p
}

// upstreamError keeps API validation failures recognizable to the handler.
func upstreamError(err error) error {
	if apiclient.IsValidation(err) || apiclient.IsForbidden(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
