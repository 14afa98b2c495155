package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"spacebook/internal/domain"
)

// ReservationPayload is the body of reservation create/update. The API
// expects space_id as a string and local date-times without a zone.
type ReservationPayload struct {
	SpaceID   string `json:"space_id"`
	EventName string `json:"event_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// NewReservationPayload joins a calendar date with two "HH:mm" times.
func NewReservationPayload(spaceID int64, eventName, date, startTime, endTime string) ReservationPayload {
	return ReservationPayload{
		SpaceID:   strconv.FormatInt(spaceID, 10),
		EventName: eventName,
		StartTime: date + "T" + startTime,
		EndTime:   date + "T" + endTime,
	}
}

func (c *Client) ListReservationsByUser(ctx context.Context, creds Credentials, userID int64) ([]domain.Reservation, error) {
	return c.listReservations(ctx, "list_user_reservations", creds, "/reservations/user/"+strconv.FormatInt(userID, 10))
}

// ListReservationsBySpace returns the reservations of a space, optionally
// narrowed by the API to one date.
func (c *Client) ListReservationsBySpace(ctx context.Context, creds Credentials, spaceID int64, date string) ([]domain.Reservation, error) {
	path := "/reservations/space/" + strconv.FormatInt(spaceID, 10)
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	return c.listReservations(ctx, "list_space_reservations", creds, path)
}

func (c *Client) GetReservation(ctx context.Context, creds Credentials, id int64) (*domain.Reservation, error) {
	var out domain.Reservation
	if err := c.do(ctx, "get_reservation", creds, http.MethodGet, "/reservations/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReservation(ctx context.Context, creds Credentials, p ReservationPayload) error {
	return c.do(ctx, "create_reservation", creds, http.MethodPost, "/reservations", p, nil)
}

func (c *Client) UpdateReservation(ctx context.Context, creds Credentials, id int64, p ReservationPayload) error {
	return c.do(ctx, "update_reservation", creds, http.MethodPut, "/reservations/"+strconv.FormatInt(id, 10), p, nil)
}

func (c *Client) DeleteReservation(ctx context.Context, creds Credentials, id int64) error {
	return c.do(ctx, "delete_reservation", creds, http.MethodDelete, "/reservations/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) listReservations(ctx context.Context, operation string, creds Credentials, path string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	if err := c.do(ctx, operation, creds, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Reservation{}
	}
	return out, nil
}
