package reservations

import (
	"context"

	"spacebook/internal/apiclient"
	"spacebook/internal/domain"
	"spacebook/internal/notification"
)

// ReservationAPI is the part of the reservation API this module uses.
type ReservationAPI interface {
	ListSpaces(ctx context.Context, creds apiclient.Credentials, q apiclient.AvailabilityQuery) ([]domain.Space, error)
	ListReservationsByUser(ctx context.Context, creds apiclient.Credentials, userID int64) ([]domain.Reservation, error)
	ListReservationsBySpace(ctx context.Context, creds apiclient.Credentials, spaceID int64, date string) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, creds apiclient.Credentials, id int64) (*domain.Reservation, error)
	CreateReservation(ctx context.Context, creds apiclient.Credentials, p apiclient.ReservationPayload) error
	UpdateReservation(ctx context.Context, creds apiclient.Credentials, id int64, p apiclient.ReservationPayload) error
	DeleteReservation(ctx context.Context, creds apiclient.Credentials, id int64) error
}

type Notifier interface {
	Notify(userID int64, kind notification.Kind, message, title string)
}

// Sequencer orders the requests of one view of a session.
type Sequencer interface {
	Begin(owner, view string, seq uint64) bool
	IsLatest(owner, view string, seq uint64) bool
}

// SkipCounter counts reservations dropped by the normalizer.
type SkipCounter interface {
	SkippedRecords(n int)
}
