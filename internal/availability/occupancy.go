package availability

// TimeRange is an occupied interval, both ends "HH:mm".
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Occupancy struct {
	Date                string      `json:"date"`
	Reservations        []Record    `json:"reservations"`
	OccupiedRanges      []TimeRange `json:"occupied_ranges"`
	AvailableStartTimes []string    `json:"available_start_times"`
	AvailableEndTimes   []string    `json:"available_end_times"`
}

// ResolveOccupancy computes the picker state of one space on targetDate.
// excludeID removes the reservation being edited; zero excludes nothing.
//
// Reservations of the day collapse into a single [min start, max end] range.
// Free gaps between reservations are reported as occupied.
// The available start/end times are always the full slot grid.
func ResolveOccupancy(records []Record, targetDate string, excludeID int64, slots []string) Occupancy {
	occ := Occupancy{
		Date:                targetDate,
		Reservations:        []Record{},
		OccupiedRanges:      []TimeRange{},
		AvailableStartTimes: append([]string(nil), slots...),
		AvailableEndTimes:   append([]string(nil), slots...),
	}

	for _, r := range records {
		if r.Date != targetDate {
			continue
		}
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		occ.Reservations = append(occ.Reservations, r)
	}
	if len(occ.Reservations) == 0 {
		return occ
	}

	merged := TimeRange{Start: occ.Reservations[0].StartTime, End: occ.Reservations[0].EndTime}
	for _, r := range occ.Reservations[1:] {
		if r.StartTime < merged.Start {
			merged.Start = r.StartTime
		}
		if r.EndTime > merged.End {
			merged.End = r.EndTime
		}
	}
	occ.OccupiedRanges = []TimeRange{merged}

	return occ
}
