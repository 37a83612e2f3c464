package models

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// MaxYear is the last year DateLayout renders with four digits.
const MaxYear = 9999

// Window is an inclusive [Start, End] range of calendar dates.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DateOf strips the time of day, keeping the calendar date as seen in t's location.
// The result is midnight UTC so dates compare independently of time zones.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// OccupiedWindow computes the dates blocked by a booking.
// Hour-based bookings occupy only the calendar day they start on; the model
// has no time-of-day, so several hours on one day block that whole day.
// Day-based bookings occupy start .. start+(value-1) inclusive.
func OccupiedWindow(start time.Time, unit DurationUnit, value int) Window {
	start = DateOf(start)
	if unit == UnitHours || value <= 1 {
		return Window{Start: start, End: start}
	}
	return Window{Start: start, End: start.AddDate(0, 0, value-1)}
}

// Overlaps reports whether two inclusive windows share at least one date.
// Ranges overlap unless one ends strictly before the other starts.
func (w Window) Overlaps(other Window) bool {
	return !(w.End.Before(other.Start) || other.End.Before(w.Start))
}

// Contains reports whether the date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Shift moves the window by n days keeping its length.
func (w Window) Shift(days int) Window {
	return Window{Start: w.Start.AddDate(0, 0, days), End: w.End.AddDate(0, 0, days)}
}

// Valid reports whether the window is ordered and both ends keep a
// four-digit year, so stored dates compare correctly as text.
func (w Window) Valid() bool {
	return !w.End.Before(w.Start) && w.Start.Year() >= 1 && w.End.Year() <= MaxYear
}
