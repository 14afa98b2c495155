package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"spacebook/internal/domain"
)

// SpacePayload is the body of space create/update. Optional fields are only
// sent when set.
type SpacePayload struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Capacity     int      `json:"capacity"`
	Description  string   `json:"description,omitempty"`
	PricePerHour *float64 `json:"price_per_hour,omitempty"`
}

// AvailabilityQuery narrows the space list to spaces free in a time window.
type AvailabilityQuery struct {
	Date      string
	StartTime string
	EndTime   string
}

func (q AvailabilityQuery) complete() bool {
	return q.Date != "" && q.StartTime != "" && q.EndTime != ""
}

// ListSpaces returns all spaces, or only the available ones when q carries a
// date and both times. A partial query is not sent.
func (c *Client) ListSpaces(ctx context.Context, creds Credentials, q AvailabilityQuery) ([]domain.Space, error) {
	path := "/spaces"
	if q.complete() {
		params := url.Values{}
		params.Set("date", q.Date)
		params.Set("start_time", q.StartTime)
		params.Set("end_time", q.EndTime)
		path += "?" + params.Encode()
	}

	var out []domain.Space
	if err := c.do(ctx, "list_spaces", creds, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Space{}
	}
	return out, nil
}

func (c *Client) CreateSpace(ctx context.Context, creds Credentials, p SpacePayload) (*domain.Space, error) {
	var out domain.Space
	if err := c.do(ctx, "create_space", creds, http.MethodPost, "/spaces", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSpace(ctx context.Context, creds Credentials, id int64, p SpacePayload) (*domain.Space, error) {
	var out domain.Space
	if err := c.do(ctx, "update_space", creds, http.MethodPut, "/spaces/"+strconv.FormatInt(id, 10), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSpace(ctx context.Context, creds Credentials, id int64) error {
	return c.do(ctx, "delete_space", creds, http.MethodDelete, "/spaces/"+strconv.FormatInt(id, 10), nil, nil)
}
