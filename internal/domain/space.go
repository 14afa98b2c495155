package domain

type SpaceType string

const (
	SpaceMeetingRoom SpaceType = "meeting_room"
	SpaceAuditorium  SpaceType = "auditorium"
	SpaceOpenSpace   SpaceType = "open_space"
	SpaceOther       SpaceType = "other"
)

// SpaceTypeOption is a selectable entry of the space form.
type SpaceTypeOption struct {
	Label string    `json:"label"`
	Value SpaceType `json:"value"`
}

// SpaceTypeOptions lists the known categories. The set is open-ended: spaces
// returned by the API may carry any type string.
var SpaceTypeOptions = []SpaceTypeOption{
	{Label: "Meeting Room", Value: SpaceMeetingRoom},
	{Label: "Auditorium", Value: SpaceAuditorium},
	{Label: "Open Space", Value: SpaceOpenSpace},
	{Label: "Other", Value: SpaceOther},
}

type Space struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Capacity     int      `json:"capacity"`
	PricePerHour *float64 `json:"price_per_hour,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// IsPriced reports whether the space carries an hourly price.
func (s Space) IsPriced() bool {
	return s.PricePerHour != nil
}

// FindSpace returns the space with the given id.
func FindSpace(spaces []Space, id int64) (*Space, bool) {
	for i := range spaces {
		if spaces[i].ID.Int64() == id {
			return &spaces[i], true
		}
	}
	return nil, false
}
