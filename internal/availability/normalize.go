package availability

import (
	"fmt"
	"strings"
	"time"

	"spacebook/internal/domain"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DayStart = "00:00"
	DayEnd   = "23:59"
)

// Record is the canonical shape of a reservation. Every component downstream
// of the normalizer works on Records only.
type Record struct {
	ID        int64  `json:"id"`
	SpaceID   int64  `json:"space_id"`
	EventName string `json:"event_name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Skipped describes a reservation excluded by NormalizeAll.
type Skipped struct {
	ReservationID int64
	Err           error
}

// Normalize extracts the canonical (date, start, end) triple from a raw
// reservation. Missing or malformed times fall back to the bounds of the day
// so an un-timed record occupies the whole day.
func Normalize(r domain.Reservation) (Record, error) {
	rec := Record{
		ID:        r.ID.Int64(),
		SpaceID:   r.SpaceID.Int64(),
		EventName: r.EventName,
		StartTime: clockTime(r.StartTime, DayStart),
		EndTime:   clockTime(r.EndTime, DayEnd),
	}

	raw := strings.TrimSpace(r.Date)
	if raw == "" {
		raw = strings.TrimSpace(r.StartTime)
	}
	date, ok := calendarDate(raw)
	if !ok {
		return rec, fmt.Errorf("reservation %d: %w: %q", rec.ID, ErrUnparseableDate, raw)
	}
	rec.Date = date

	return rec, nil
}

// NormalizeAll normalizes every reservation, excluding the ones whose date
// cannot be determined. Excluded records are reported so callers can log them.
func NormalizeAll(rs []domain.Reservation) ([]Record, []Skipped) {
	out := make([]Record, 0, len(rs))
	var skipped []Skipped
	for _, r := range rs {
		rec, err := Normalize(r)
		if err != nil {
			skipped = append(skipped, Skipped{ReservationID: r.ID.Int64(), Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

// splitDateTime separates "2024-12-20T09:00:00" (or the SQL style
// "2024-12-20 09:00:00") into its date and time parts. A bare time is
// returned as the time part.
func splitDateTime(raw string) (string, string) {
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		if _, err := time.Parse(DateLayout, raw[:i]); err == nil {
			return raw[:i], strings.TrimSpace(raw[i+1:])
		}
	}
	if _, err := time.Parse(DateLayout, raw); err == nil {
		return raw, ""
	}
	return "", raw
}

func calendarDate(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	raw, _ = splitDateTime(raw)
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", false
	}
	return d.Format(DateLayout), true
}

func clockTime(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	_, raw = splitDateTime(raw)
	if len(raw) < 5 {
		return fallback
	}
	hm := raw[:5]
	if _, err := time.Parse(TimeLayout, hm); err != nil {
		return fallback
	}
	return hm
}
