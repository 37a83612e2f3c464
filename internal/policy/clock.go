package policy

import "time"

type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in the site's time zone.
type RealClock struct {
	Location *time.Location
}

func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
