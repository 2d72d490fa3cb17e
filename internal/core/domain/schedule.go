package domain

import "time"

// Schedule is one refresh schedule entry: a category and the calendar date
// its next refresh is due. There is exactly one entry per known category;
// entries are owned by the refresher and only it writes them.
type Schedule struct {
	Category Category
	NextDue  time.Time
	Updated  time.Time
}

// Due reports whether the entry is due on the given day. Scheduling is
// daily-resolution, so only the calendar date is compared.
func (s Schedule) Due(today time.Time) bool {
	return !DateOf(s.NextDue).After(DateOf(today))
}

// DateOf truncates a time to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
