// Package daily holds the calendar arithmetic behind daily mode: which day
// number a moment falls on relative to the epoch, and how long until the next
// word unlocks.
package daily

import (
	"time"
)

// DefaultEpoch is the first day of the daily sequence (day 0).
var DefaultEpoch = time.Date(2022, time.March, 27, 0, 0, 0, 0, time.Local)

// Calendar maps instants to whole calendar days in a fixed location.
type Calendar struct {
	Epoch    time.Time      // Day 0; only its calendar date in Location matters.
	Location *time.Location // Day boundaries are midnights in this location.
}

// NewCalendar returns a Calendar for epoch in loc. A nil loc means time.Local.
func NewCalendar(epoch time.Time, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Epoch: epoch, Location: loc}
}

// DateKey returns YYYY-MM-DD for t in the calendar's location.
func (c Calendar) DateKey(t time.Time) string {
	return t.In(c.loc()).Format("2006-01-02")
}

// DayNumber returns the number of whole calendar days between the epoch and t.
// It is negative for days before the epoch. Daylight-saving shifts do not
// affect the result because only the civil dates are compared.
func (c Calendar) DayNumber(t time.Time) int {
	return civilDays(t.In(c.loc())) - civilDays(c.Epoch.In(c.loc()))
}

// UntilNextDay returns the time left before the day boundary after t.
func (c Calendar) UntilNextDay(t time.Time) time.Duration {
	lt := t.In(c.loc())
	y, m, d := lt.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, c.loc())
	return next.Sub(lt)
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// civilDays counts days from the Unix epoch for t's civil date.
func civilDays(t time.Time) int {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(u.Unix() / 86400)
}
