// Package calendar implements the trading calendar: which days are tradable,
// which base dates are valid and the session window that bounds tick
// timestamps.
//
// Session times are wall-clock New York times without an offset. They are
// carried as time.Time values in time.UTC ("unspecified" values); the UTC
// location only marks the absence of a zone and is never used to convert.
package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"TickData/internal/errs"
)

// FirstHour is the local hour (5pm) at which a trading session starts.
const FirstHour = 17

// MinYearFloor is the lowest accepted configuration for the first year.
const MinYearFloor = 2010

// SessionZone is the zone whose wall clock session times are expressed in.
const SessionZone = "America/New_York"

// TextLayout renders session times as MM/dd/yyyy HH:mm:ss.fff.
const TextLayout = "01/02/2006 15:04:05.000"

const day = 24 * time.Hour

// Date returns the unspecified midnight of y-m-d.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At returns an unspecified session time with millisecond resolution.
func At(y int, m time.Month, d, hour, min, sec, ms int) time.Time {
	return time.Date(y, m, d, hour, min, sec, ms*int(time.Millisecond), time.UTC)
}

// Text formats t with TextLayout.
func Text(t time.Time) string { return t.Format(TextLayout) }

func isUnspecified(t time.Time) bool { return t.Location() == time.UTC }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsTradableDay reports whether the calendar day of t can hold a session
// start: never on Friday or Saturday, nor on Jan 1, Jan 2, Dec 24, 25, 26
// and 31.
func IsTradableDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Friday, time.Saturday:
		return false
	}
	switch t.Month() {
	case time.January:
		switch t.Day() {
		case 1, 2:
			return false
		}
	case time.December:
		switch t.Day() {
		case 24, 25, 26, 31:
			return false
		}
	}
	return true
}

// ToBaseDate returns the base date owning t: the same day from FirstHour on,
// the previous day before it.
func ToBaseDate(t time.Time) time.Time {
	d := truncateDay(t)
	if t.Hour() >= FirstHour {
		return d
	}
	return d.AddDate(0, 0, -1)
}

// Session returns the first and last valid tick instants of baseDate:
// baseDate+17:00 through the next day 16:59:59.999.
func Session(baseDate time.Time) (minTickOn, maxTickOn time.Time) {
	minTickOn = baseDate.Add(FirstHour * time.Hour)
	maxTickOn = minTickOn.Add(day - time.Millisecond)
	return minTickOn, maxTickOn
}

// Calendar holds the configuration needed to bound base dates. It is an
// immutable value: build a new one to change the first year.
type Calendar struct {
	minYear int
	now     func() time.Time
	zone    *time.Location
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// WithLocation replaces the session zone.
func WithLocation(loc *time.Location) Option {
	return func(c *Calendar) { c.zone = loc }
}

// New returns a calendar whose base dates start in minYear.
func New(minYear int, opts ...Option) (*Calendar, error) {
	c := &Calendar{minYear: minYear, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.zone == nil {
		loc, err := time.LoadLocation(SessionZone)
		if err != nil {
			return nil, fmt.Errorf("load session zone: %w", err)
		}
		c.zone = loc
	}
	if minYear < MinYearFloor || minYear > c.MaxBaseDate().Year() {
		return nil, errs.Range("minYear", minYear,
			fmt.Sprintf("must be within %d..%d", MinYearFloor, c.MaxBaseDate().Year()))
	}
	return c, nil
}

// MinYear returns the configured first year.
func (c *Calendar) MinYear() int { return c.minYear }

// ToSessionTime converts an instant to the unspecified session wall clock.
func (c *Calendar) ToSessionTime(t time.Time) time.Time {
	l := t.In(c.zone)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), time.UTC)
}

// Today returns the current session-zone date as an unspecified midnight.
func (c *Calendar) Today() time.Time {
	return truncateDay(c.ToSessionTime(c.now()))
}

// MinBaseDate is January 1st of MinYear rolled forward to a tradable day.
func (c *Calendar) MinBaseDate() time.Time {
	d := Date(c.minYear, time.January, 1)
	for !IsTradableDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// MaxBaseDate is today rolled back to a tradable day.
func (c *Calendar) MaxBaseDate() time.Time {
	d := c.Today()
	for !IsTradableDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// MinTickOn is the first instant of the first valid session.
func (c *Calendar) MinTickOn() time.Time {
	return c.MinBaseDate().Add(FirstHour * time.Hour)
}

// IsValidBaseDate reports whether t is an unspecified midnight on a tradable
// day within [MinBaseDate, MaxBaseDate].
func (c *Calendar) IsValidBaseDate(t time.Time) bool {
	if !isUnspecified(t) {
		return false
	}
	if !t.Equal(truncateDay(t)) {
		return false
	}
	if t.Before(c.MinBaseDate()) || t.After(c.MaxBaseDate()) {
		return false
	}
	return IsTradableDay(t)
}

// IsValidTickOn reports whether t can stamp a tick: its base date must be
// valid, Friday ticks must precede 17:00, Sunday ticks must follow it and
// Saturday has none.
func (c *Calendar) IsValidTickOn(t time.Time) bool {
	if !c.IsValidBaseDate(ToBaseDate(t)) {
		return false
	}
	switch t.Weekday() {
	case time.Friday:
		return t.Hour() < FirstHour
	case time.Saturday:
		return false
	case time.Sunday:
		return t.Hour() >= FirstHour
	default:
		return true
	}
}
