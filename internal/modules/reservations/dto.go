package reservations

import (
	"strconv"

	"spacebook/internal/availability"
	"spacebook/internal/domain"
)

// ReservationRequest is the reservation form. space_id may arrive as a number
// or a string.
type ReservationRequest struct {
	SpaceID   domain.ID `json:"space_id" validate:"required"`
	EventName string    `json:"event_name" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string    `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string    `json:"end_time" validate:"required,datetime=15:04"`
}

// ListItem is a reservation of the list with the page that edits it.
type ListItem struct {
	availability.Record
	EditRedirect string `json:"edit_redirect"`
}

type ListView struct {
	Reservations []ListItem `json:"reservations"`
	Total        int        `json:"total"`
}

// FormMeta holds the labels of the create/edit reservation page.
type FormMeta struct {
	Mode           string `json:"mode"`
	PageTitle      string `json:"page_title"`
	PageSubtitle   string `json:"page_subtitle"`
	SubmitLabel    string `json:"submit_label"`
	LoadingText    string `json:"loading_text"`
	CancelRedirect string `json:"cancel_redirect"`
}

// FormValues pre-fills the reservation form.
type FormValues struct {
	SpaceID   int64  `json:"space_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	EventName string `json:"event_name"`
}

type CalendarView struct {
	Space       *domain.Space             `json:"space"`
	Week        availability.WeekSchedule `json:"week"`
	PrevWeek    string                    `json:"prev_week"`
	NextWeek    string                    `json:"next_week"`
	CurrentWeek string                    `json:"current_week"`
	TimeSlots   []string                  `json:"time_slots"`
}

type CreateFormView struct {
	Form        FormMeta      `json:"form"`
	Values      FormValues    `json:"values"`
	TimeOptions []string      `json:"time_options"`
	Calendar    *CalendarView `json:"calendar"`
}

type EditFormView struct {
	ReservationID int64                  `json:"reservation_id"`
	Space         *domain.Space          `json:"space,omitempty"`
	Form          FormMeta               `json:"form"`
	Values        FormValues             `json:"values"`
	TimeOptions   []string               `json:"time_options"`
	Occupancy     availability.Occupancy `json:"occupancy"`
}

type OccupancyView struct {
	availability.Occupancy
	SpaceID  int64  `json:"space_id"`
	Seq      uint64 `json:"seq,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// OccupancyQuery selects the day whose occupancy feeds the time pickers.
// View identifies one page load so a reload restarts Seq cleanly.
type OccupancyQuery struct {
	SpaceID   int64  `form:"space_id" binding:"required"`
	Date      string `form:"date" binding:"required"`
	ExcludeID int64  `form:"exclude_id"`
	Seq       uint64 `form:"seq"`
	View      string `form:"view"`
}

// CalendarQuery selects a week; Nav moves it relative to Week.
type CalendarQuery struct {
	SpaceID int64  `form:"space_id" binding:"required"`
	Week    string `form:"week"`
	Nav     string `form:"nav"`
	Seq     uint64 `form:"seq"`
	View    string `form:"view"`
}

// MutationResult answers create, update and delete.
type MutationResult struct {
	Status   string `json:"status"`
	Prompt   string `json:"prompt,omitempty"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// Export is a rendered calendar file.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

const (
	modeCreate = "create"
	modeEdit   = "edit"
)

func formMeta(mode string) FormMeta {
	if mode == modeCreate {
		return FormMeta{
			Mode:           modeCreate,
			PageTitle:      "Create Reservation",
			PageSubtitle:   "Book your space for the perfect time",
			SubmitLabel:    "Create Reservation",
			LoadingText:    "Loading space details...",
			CancelRedirect: "/spaces",
		}
	}
	return FormMeta{
		Mode:           modeEdit,
		PageTitle:      "Edit Reservation",
		PageSubtitle:   "Update your booking details",
		SubmitLabel:    "Update Reservation",
		LoadingText:    "Loading reservation details...",
		CancelRedirect: "/reservations",
	}
}

func listItems(records []availability.Record) []ListItem {
	out := make([]ListItem, 0, len(records))
	for _, r := range records {
		out = append(out, ListItem{
			Record:       r,
			EditRedirect: "/reservations/edit/" + strconv.FormatInt(r.ID, 10),
		})
	}
	return out
}
