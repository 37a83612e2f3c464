package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a date
func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestOccupiedWindow(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		unit     DurationUnit
		value    int
		expected Window
	}{
		{
			name:     "single day",
			start:    day(2026, 3, 10),
			unit:     UnitDays,
			value:    1,
			expected: Window{Start: day(2026, 3, 10), End: day(2026, 3, 10)},
		},
		{
			name:     "three days",
			start:    day(2026, 3, 10),
			unit:     UnitDays,
			value:    3,
			expected: Window{Start: day(2026, 3, 10), End: day(2026, 3, 12)},
		},
		{
			name:     "days across month end",
			start:    day(2026, 1, 30),
			unit:     UnitDays,
			value:    4,
			expected: Window{Start: day(2026, 1, 30), End: day(2026, 2, 2)},
		},
		{
			name:     "hours stay on start day",
			start:    day(2026, 3, 10),
			unit:     UnitHours,
			value:    5,
			expected: Window{Start: day(2026, 3, 10), End: day(2026, 3, 10)},
		},
		{
			name:     "time of day is dropped",
			start:    time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC),
			unit:     UnitDays,
			value:    2,
			expected: Window{Start: day(2026, 3, 10), End: day(2026, 3, 11)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := OccupiedWindow(tt.start, tt.unit, tt.value)
			assert.Equal(t, tt.expected, w)
			assert.False(t, w.End.Before(w.Start))
		})
	}
}

func TestWindow_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Window
		expected bool
	}{
		{
			name:     "identical single day",
			a:        Window{day(2026, 3, 10), day(2026, 3, 10)},
			b:        Window{day(2026, 3, 10), day(2026, 3, 10)},
			expected: true,
		},
		{
			name:     "adjacent days do not overlap",
			a:        Window{day(2026, 3, 10), day(2026, 3, 12)},
			b:        Window{day(2026, 3, 13), day(2026, 3, 14)},
			expected: false,
		},
		{
			name:     "shared boundary overlaps",
			a:        Window{day(2026, 3, 10), day(2026, 3, 12)},
			b:        Window{day(2026, 3, 12), day(2026, 3, 14)},
			expected: true,
		},
		{
			name:     "contained",
			a:        Window{day(2026, 3, 1), day(2026, 3, 20)},
			b:        Window{day(2026, 3, 5), day(2026, 3, 6)},
			expected: true,
		},
		{
			name:     "disjoint",
			a:        Window{day(2026, 3, 1), day(2026, 3, 2)},
			b:        Window{day(2026, 3, 20), day(2026, 3, 21)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Overlaps(tt.b))
			// overlap is symmetric
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a))
		})
	}
}

func TestWindow_ContainsDaysShift(t *testing.T) {
	w := Window{Start: day(2026, 3, 10), End: day(2026, 3, 12)}

	assert.True(t, w.Contains(day(2026, 3, 10)))
	assert.True(t, w.Contains(time.Date(2026, 3, 12, 23, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(day(2026, 3, 13)))
	assert.Equal(t, 3, w.Days())

	shifted := w.Shift(2)
	assert.Equal(t, day(2026, 3, 12), shifted.Start)
	assert.Equal(t, day(2026, 3, 14), shifted.End)
	assert.Equal(t, w.Days(), shifted.Days())
}

func TestWindow_Valid(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		want bool
	}{
		{"single day", Window{Start: day(2026, 3, 10), End: day(2026, 3, 10)}, true},
		{"ordered", Window{Start: day(2026, 3, 10), End: day(2026, 3, 12)}, true},
		{"last four digit date", Window{Start: day(9999, 12, 1), End: day(9999, 12, 31)}, true},
		{"end before start", Window{Start: day(2026, 3, 10), End: day(2026, 3, 8)}, false},
		{"five digit year", Window{Start: day(9999, 12, 1), End: day(10000, 1, 1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.Valid())
		})
	}
}

func TestReservation_Window(t *testing.T) {
	r := Reservation{StartDate: day(2026, 5, 1), DurationUnit: UnitDays, DurationValue: 7, Status: StatusAccepted}

	assert.Equal(t, day(2026, 5, 7), r.EndDate())
	assert.True(t, r.IsAccepted())
	assert.True(t, r.ContainsDate(day(2026, 5, 4)))
	assert.False(t, r.ContainsDate(day(2026, 5, 8)))

	other := Reservation{StartDate: day(2026, 5, 7), DurationUnit: UnitHours, DurationValue: 3}
	assert.True(t, r.OverlapsWith(&other))
	assert.True(t, other.OverlapsWith(&r))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, day(2026, 2, 28), d)
	assert.Equal(t, "2026-02-28", FormatDate(d))

	_, err = ParseDate("2026-02-30")
	assert.Error(t, err)
	_, err = ParseDate("28.02.2026")
	assert.Error(t, err)
}

func TestDurationUnit_Valid(t *testing.T) {
	assert.True(t, UnitDays.Valid())
	assert.True(t, UnitHours.Valid())
	assert.False(t, DurationUnit("weeks").Valid())
	assert.False(t, DurationUnit("").Valid())
}

func TestReason_Class(t *testing.T) {
	tests := []struct {
		reason   Reason
		expected ReasonClass
	}{
		{ReasonUnknownType, ClassInvalidInput},
		{ReasonInvalidUnit, ClassInvalidInput},
		{ReasonInvalidDuration, ClassInvalidInput},
		{ReasonInvalidDate, ClassInvalidInput},
		{ReasonOutsideWindow, ClassPolicy},
		{ReasonSelfOverlap, ClassContention},
		{ReasonOtherOverlap, ClassContention},
		{ReasonNone, ClassNone},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.Class())
		})
	}
}

func TestResourceType_Instance(t *testing.T) {
	rt := ResourceType{
		Key:   TypeMeetingRoom,
		Label: "Meeting room",
		Instances: []ResourceInstance{
			{ID: 5, TypeKey: TypeMeetingRoom, EquipmentClass: "Projector"},
			{ID: 6, TypeKey: TypeMeetingRoom, EquipmentClass: "Video conferencing"},
		},
	}

	assert.True(t, rt.HasInstances())
	inst, ok := rt.Instance(6)
	require.True(t, ok)
	assert.Equal(t, "Video conferencing", inst.EquipmentClass)
	_, ok = rt.Instance(1)
	assert.False(t, ok)
	assert.False(t, ResourceType{Key: "x"}.HasInstances())
}
