package availability

import (
	"fmt"
	"time"
)

const daysPerWeek = 7

type TimeSlot struct {
	Time          string `json:"time"`
	Reserved      bool   `json:"reserved"`
	EventName     string `json:"event_name,omitempty"`
	ReservationID int64  `json:"reservation_id,omitempty"`
	Tooltip       string `json:"tooltip"`
}

type DaySchedule struct {
	Date    time.Time  `json:"-"`
	DateStr string     `json:"date"`
	DayName string     `json:"day_name"`
	IsToday bool       `json:"is_today"`
	Slots   []TimeSlot `json:"slots"`
}

type WeekSchedule struct {
	WeekStart string        `json:"week_start"`
	Range     string        `json:"range"`
	Days      []DaySchedule `json:"days"`
}

// WeekStart returns the Monday of t's ISO week at midnight, in t's location.
func WeekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// BuildWeek lays out seven days starting at the Monday of weekStart. A slot
// is reserved when a record on that day satisfies start <= slot < end.
// Records and slots are zero-padded "HH:mm", so string order is time order.
func BuildWeek(weekStart time.Time, records []Record, slots []string, now time.Time) WeekSchedule {
	monday := WeekStart(weekStart)
	today := startOfDay(now.In(monday.Location()))

	days := make([]DaySchedule, 0, daysPerWeek)
	for i := 0; i < daysPerWeek; i++ {
		date := monday.AddDate(0, 0, i)
		dateStr := date.Format(DateLayout)

		daySlots := make([]TimeSlot, 0, len(slots))
		for _, slot := range slots {
			ts := TimeSlot{Time: slot}
			if rec, ok := FindReservation(records, dateStr, slot); ok {
				ts.Reserved = true
				ts.EventName = rec.EventName
				ts.ReservationID = rec.ID
			}
			ts.Tooltip = slotTooltip(ts)
			daySlots = append(daySlots, ts)
		}

		days = append(days, DaySchedule{
			Date:    date,
			DateStr: dateStr,
			DayName: date.Weekday().String()[:3],
			IsToday: date.Equal(today),
			Slots:   daySlots,
		})
	}

	return WeekSchedule{
		WeekStart: monday.Format(DateLayout),
		Range:     weekRange(days[0].Date, days[daysPerWeek-1].Date),
		Days:      days,
	}
}

// FindReservation returns the first record on date whose [start, end)
// contains slot.
func FindReservation(records []Record, date, slot string) (Record, bool) {
	for _, r := range records {
		if r.Date != date {
			continue
		}
		if slot >= r.StartTime && slot < r.EndTime {
			return r, true
		}
	}
	return Record{}, false
}

func slotTooltip(s TimeSlot) string {
	switch {
	case s.Reserved && s.EventName != "":
		return "Reserved: " + s.EventName
	case s.Reserved:
		return "Reserved"
	default:
		return "Available"
	}
}

func weekRange(start, end time.Time) string {
	startMonth := start.Month().String()[:3]
	endMonth := end.Month().String()[:3]
	if start.Month() == end.Month() {
		return fmt.Sprintf("%s %d - %d, %d", startMonth, start.Day(), end.Day(), end.Year())
	}
	return fmt.Sprintf("%s %d - %s %d, %d", startMonth, start.Day(), endMonth, end.Day(), end.Year())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
