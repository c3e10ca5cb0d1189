package timeutil

import (
	"fmt"
	"time"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap, so
// back-to-back reservations are never in conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether t falls inside the half-open interval [start, end).
func Contains(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// DayBounds returns the first and last instant of t's calendar day in loc:
// 00:00:00.000 and 23:59:59.999.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// TimeOfDay is a wall-clock time within a day, parsed from "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var tod TimeOfDay
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return tod, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	tod.Hour = parsed.Hour()
	tod.Minute = parsed.Minute()
	return tod, nil
}

// At anchors the time of day to date's calendar day in loc.
func (tod TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	local := date.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), tod.Hour, tod.Minute, 0, 0, loc)
}

// Minutes returns the offset from midnight, used for ordering comparisons.
func (tod TimeOfDay) Minutes() int {
	return tod.Hour*60 + tod.Minute
}

func (tod TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", tod.Hour, tod.Minute)
}
