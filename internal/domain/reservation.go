package domain

// Reservation is the record as the remote API returns it. StartTime and
// EndTime are either full date-times ("2024-12-20T09:00:00") or bare times
// ("09:00:00"); Date is optional. Use availability.Normalize to obtain a
// canonical record before comparing anything.
type Reservation struct {
	ID        ID     `json:"id"`
	SpaceID   ID     `json:"space_id"`
	UserID    ID     `json:"user_id,omitempty"`
	EventName string `json:"event_name"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Date      string `json:"date,omitempty"`
}
