package availability

import "time"

// Calendar holds the week anchor of a calendar view and moves it around.
type Calendar struct {
	anchor time.Time
	slots  []string
	clock  func() time.Time
}

func NewCalendar(slots []string, clock func() time.Time) *Calendar {
	if clock == nil {
		clock = time.Now
	}
	return &Calendar{
		anchor: WeekStart(clock()),
		slots:  slots,
		clock:  clock,
	}
}

func (c *Calendar) Anchor() time.Time {
	return c.anchor
}

// SetAnchor moves the view to the week containing t.
func (c *Calendar) SetAnchor(t time.Time) {
	c.anchor = WeekStart(t)
}

func (c *Calendar) NextWeek() {
	c.anchor = c.anchor.AddDate(0, 0, daysPerWeek)
}

func (c *Calendar) PreviousWeek() {
	c.anchor = c.anchor.AddDate(0, 0, -daysPerWeek)
}

func (c *Calendar) GoToToday() {
	c.anchor = WeekStart(c.clock())
}

func (c *Calendar) Slots() []string {
	return c.slots
}

func (c *Calendar) Build(records []Record) WeekSchedule {
	return BuildWeek(c.anchor, records, c.slots, c.clock())
}
