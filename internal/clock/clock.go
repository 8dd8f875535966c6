// Package clock packs the simulated day/hour/minute into a single word
// so the shared block can publish the calendar with one atomic store.
package clock

import "fmt"

const (
	MinutesPerHour = 60
	HoursPerDay    = 24

	// TicksPerDay is the number of clock advances in one simulated day
	TicksPerDay = HoursPerDay * MinutesPerHour
)

// Time is one instant of the simulated calendar. Day is 1-based; a zero
// Time (day 0) means the clock has not started.
type Time struct {
	Day    int
	Hour   int
	Minute int
}

// Packed word layout:
//
//	bits [0,8)   minute
//	bits [8,16)  hour
//	bits [16,64) day

// Pack encodes a Time into one word
func Pack(t Time) uint64 {
	return uint64(t.Day)<<16 | uint64(t.Hour&0xff)<<8 | uint64(t.Minute&0xff)
}

// Unpack decodes a packed word
func Unpack(w uint64) Time {
	return Time{
		Day:    int(w >> 16),
		Hour:   int(w >> 8 & 0xff),
		Minute: int(w & 0xff),
	}
}

// StartOfDay returns the first instant (00:00) of the given day
func StartOfDay(day int) Time {
	return Time{Day: day}
}

// Next returns the instant one simulated minute later, rolling minutes
// into hours and hours into the next day.
func (t Time) Next() Time {
	t.Minute++
	if t.Minute >= MinutesPerHour {
		t.Minute = 0
		t.Hour++
		if t.Hour >= HoursPerDay {
			t.Hour = 0
			t.Day++
		}
	}
	return t
}

// MinuteOfDay returns the minutes elapsed since the day's midnight
func (t Time) MinuteOfDay() int {
	return t.Hour*MinutesPerHour + t.Minute
}

// Before reports whether t precedes other on the simulated calendar
func (t Time) Before(other Time) bool {
	if t.Day != other.Day {
		return t.Day < other.Day
	}
	return t.MinuteOfDay() < other.MinuteOfDay()
}

// WithinHours reports whether t falls inside office hours [open, close)
func (t Time) WithinHours(open, close int) bool {
	return t.Hour >= open && t.Hour < close
}

// String formats the instant as "day 2 09:30"
func (t Time) String() string {
	return fmt.Sprintf("day %d %02d:%02d", t.Day, t.Hour, t.Minute)
}
