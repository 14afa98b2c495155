package spaces

import (
	"fmt"
	"strconv"
	"strings"

	"spacebook/internal/availability"
	"spacebook/internal/domain"
)

// SpaceRequest is the space form. Description and price are optional and
// only forwarded when set.
type SpaceRequest struct {
	Name         string   `json:"name" validate:"required"`
	Type         string   `json:"type" validate:"required"`
	Capacity     int      `json:"capacity" validate:"min=1"`
	Description  string   `json:"description"`
	PricePerHour *float64 `json:"price_per_hour"`
}

// ListQuery is the filter bar as sent by the browser. Capacity bounds are
// bound as text: an empty field means no bound, not zero.
type ListQuery struct {
	Type        string `form:"type"`
	MinCapacity string `form:"min_capacity"`
	MaxCapacity string `form:"max_capacity"`
	Date        string `form:"date"`
	StartTime   string `form:"start_time"`
	EndTime     string `form:"end_time"`
}

func (q ListQuery) Criteria() (availability.Criteria, error) {
	minCap, err := optionalInt("min_capacity", q.MinCapacity)
	if err != nil {
		return availability.Criteria{}, err
	}
	maxCap, err := optionalInt("max_capacity", q.MaxCapacity)
	if err != nil {
		return availability.Criteria{}, err
	}
	return availability.Criteria{
		Type:        strings.TrimSpace(q.Type),
		MinCapacity: minCap,
		MaxCapacity: maxCap,
		Date:        strings.TrimSpace(q.Date),
		StartTime:   strings.TrimSpace(q.StartTime),
		EndTime:     strings.TrimSpace(q.EndTime),
	}, nil
}

func optionalInt(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &v, nil
}

// SpaceItem is a space of the list with the page that books it.
type SpaceItem struct {
	domain.Space
	ReserveRedirect string `json:"reserve_redirect"`
}

type ListView struct {
	Spaces      []SpaceItem           `json:"spaces"`
	Total       int                   `json:"total"`
	Types       []string              `json:"types"`
	TimeOptions []string              `json:"time_options"`
	Criteria    availability.Criteria `json:"criteria"`
	IsAdmin     bool                  `json:"is_admin"`
	Stale       bool                  `json:"stale"`
}

// FormMeta holds the labels of the create/edit space page.
type FormMeta struct {
	Mode               string `json:"mode"`
	PageTitle          string `json:"page_title"`
	PageSubtitle       string `json:"page_subtitle"`
	SubmitLabel        string `json:"submit_label"`
	SubmitLoadingLabel string `json:"submit_loading_label"`
	LoadingText        string `json:"loading_text"`
}

type FormView struct {
	Space       *domain.Space            `json:"space,omitempty"`
	Form        FormMeta                 `json:"form"`
	TypeOptions []domain.SpaceTypeOption `json:"type_options"`
}

// DeleteResult is returned for both the confirmation round trip and the
// actual deletion.
type DeleteResult struct {
	Status   string `json:"status"`
	Prompt   string `json:"prompt,omitempty"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

const (
	modeCreate = "create"
	modeEdit   = "edit"
)

func formMeta(mode string) FormMeta {
	if mode == modeCreate {
		return FormMeta{
			Mode:               modeCreate,
			PageTitle:          "Create New Space",
			PageSubtitle:       "Add a new space to your inventory",
			SubmitLabel:        "Create Space",
			SubmitLoadingLabel: "Creating...",
			LoadingText:        "Loading...",
		}
	}
	return FormMeta{
		Mode:               modeEdit,
		PageTitle:          "Edit Space",
		PageSubtitle:       "Update space information",
		SubmitLabel:        "Update Space",
		SubmitLoadingLabel: "Updating...",
		LoadingText:        "Loading space data...",
	}
}

func spaceItems(spaces []domain.Space) []SpaceItem {
	out := make([]SpaceItem, 0, len(spaces))
	for _, sp := range spaces {
		out = append(out, SpaceItem{
			Space:           sp,
			ReserveRedirect: "/reservations/create?spaceId=" + strconv.FormatInt(sp.ID.Int64(), 10),
		})
	}
	return out
}
