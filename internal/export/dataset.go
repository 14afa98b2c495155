package export

import (
	"spacebook/internal/availability"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

const timeHeader = "Time"

// WeekDataset lays a week out as a grid: one row per time slot, one column
// per day. Reserved cells hold the event name, or "Reserved" when unnamed.
func WeekDataset(week availability.WeekSchedule) Dataset {
	headers := make([]string, 0, len(week.Days)+1)
	headers = append(headers, timeHeader)
	for _, day := range week.Days {
		headers = append(headers, day.DayName+" "+day.DateStr)
	}

	data := Dataset{Headers: headers}
	if len(week.Days) == 0 {
		return data
	}

	for i, slot := range week.Days[0].Slots {
		row := map[string]string{timeHeader: slot.Time}
		for d, day := range week.Days {
			if i >= len(day.Slots) || !day.Slots[i].Reserved {
				continue
			}
			label := day.Slots[i].EventName
			if label == "" {
				label = "Reserved"
			}
			row[headers[d+1]] = label
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}
