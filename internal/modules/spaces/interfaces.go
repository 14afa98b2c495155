package spaces

import (
	"context"

	"spacebook/internal/apiclient"
	"spacebook/internal/domain"
	"spacebook/internal/notification"
)

// SpaceAPI is the part of the reservation API the spaces service uses.
type SpaceAPI interface {
	ListSpaces(ctx context.Context, creds apiclient.Credentials, q apiclient.AvailabilityQuery) ([]domain.Space, error)
	CreateSpace(ctx context.Context, creds apiclient.Credentials, p apiclient.SpacePayload) (*domain.Space, error)
	UpdateSpace(ctx context.Context, creds apiclient.Credentials, id int64, p apiclient.SpacePayload) (*domain.Space, error)
	DeleteSpace(ctx context.Context, creds apiclient.Credentials, id int64) error
}

// LastGoodCache remembers the last list each user received.
type LastGoodCache interface {
	Get(ctx context.Context, userID int64) ([]domain.Space, error)
	Set(ctx context.Context, userID int64, spaces []domain.Space)
	InvalidateAll(ctx context.Context) error
}

type Notifier interface {
	Notify(userID int64, kind notification.Kind, message, title string)
}
