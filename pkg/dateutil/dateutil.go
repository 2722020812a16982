// Package dateutil produces "now" values in the session's configured time
// zone. It is independent of the evaluation engine but exposed to dependency
// expressions through the date helper namespace.
package dateutil

import (
	"strings"
	"time"
)

const (
	DateFormat     = "2006-01-02"
	DatetimeFormat = "2006-01-02 15:04:05"
)

// Clock resolves the current instant in one IANA time zone. The zero value
// is unusable; construct via New.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// Option customises a Clock.
type Option func(*Clock)

// WithNowFunc overrides the time source. Intended for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Clock for the given IANA zone name. Unknown or empty names
// fall back to UTC rather than failing: a misconfigured boot zone must not
// break form rendering.
func New(tz string, options ...Option) *Clock {
	clock := &Clock{loc: time.UTC, now: time.Now}
	if name := strings.TrimSpace(tz); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			clock.loc = loc
		}
	}
	for _, opt := range options {
		opt(clock)
	}
	return clock
}

// Now returns the current instant in the clock's zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Nowdate returns the current date as YYYY-MM-DD.
func (c *Clock) Nowdate() string {
	return c.Now().Format(DateFormat)
}

// NowDatetime returns the current instant as YYYY-MM-DD HH:MM:SS.
func (c *Clock) NowDatetime() string {
	return c.Now().Format(DatetimeFormat)
}

// Today is an alias for Nowdate, matching the reference helper names.
func (c *Clock) Today() string {
	return c.Nowdate()
}

// Parse interprets a document datetime value in the clock's zone. It accepts
// the date and datetime wire formats plus RFC 3339; ok is false for anything
// else.
func (c *Clock) Parse(value any) (time.Time, bool) {
	s, isStr := value.(string)
	if !isStr {
		if t, isTime := value.(time.Time); isTime {
			return t.In(c.loc), true
		}
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{DatetimeFormat, DateFormat} {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(c.loc), true
	}
	return time.Time{}, false
}
