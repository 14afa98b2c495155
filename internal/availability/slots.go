package availability

import "fmt"

const (
	minHour = 0
	maxHour = 23
)

// BuildSlots returns the hourly labels "HH:00" for every hour in
// [startHour, endHour]. Hours outside the 24-hour clock are dropped.
func BuildSlots(startHour, endHour int) []string {
	if startHour < minHour {
		startHour = minHour
	}
	if endHour > maxHour {
		endHour = maxHour
	}
	if endHour < startHour {
		return []string{}
	}

	slots := make([]string, 0, endHour-startHour+1)
	for h := startHour; h <= endHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

// FullDaySlots is the grid used by the space availability filter.
func FullDaySlots() []string {
	return BuildSlots(minHour, maxHour)
}
