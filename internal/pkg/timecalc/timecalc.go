// Package timecalc holds the pure attendance arithmetic: wall-clock worked
// hours and the overtime split. Everything operates on float64 hours;
// rounding to two decimals happens once, at persistence, via RoundHours.
package timecalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultStandardDailyHours applies when an area does not define its own
// standard day length.
const DefaultStandardDailyHours = 8.0

// SupplementaryCapHours is the size of the lower overtime tier. Extra time
// beyond it counts as extraordinary.
const SupplementaryCapHours = 2.0

const minutesPerDay = 24 * 60

// ParseClock converts an "HH:mm" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:mm", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock time %q: hour out of range", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q: minute out of range", s)
	}
	return hour*60 + minute, nil
}

// ComputeWorkedHours returns worked hours net of lunch and permission time.
// An empty entry or exit yields 0 (vacation or permission-only days carry no
// schedule). Exit earlier than entry is an overnight shift and wraps by 24h.
// The result is floored at 0 and deliberately left unrounded.
func ComputeWorkedHours(entry, exit string, lunchMinutes int, permissionHours float64) (float64, error) {
	if entry == "" || exit == "" {
		return 0, nil
	}

	entryMins, err := ParseClock(entry)
	if err != nil {
		return 0, err
	}
	exitMins, err := ParseClock(exit)
	if err != nil {
		return 0, err
	}

	elapsed := exitMins - entryMins
	if elapsed < 0 {
		elapsed += minutesPerDay
	}

	worked := float64(elapsed)/60.0 - float64(lunchMinutes)/60.0 - permissionHours
	if worked < 0 {
		return 0, nil
	}
	return worked, nil
}

// OvertimeSplit is the three-bucket classification of hours beyond the
// standard day.
type OvertimeSplit struct {
	NightHours         float64
	SupplementaryHours float64
	ExtraordinaryHours float64
}

// IsZero reports whether no bucket carries time, meaning no ExtraHours
// sub-record should be created.
func (s OvertimeSplit) IsZero() bool {
	return s.NightHours == 0 && s.SupplementaryHours == 0 && s.ExtraordinaryHours == 0
}

// ClassifyOvertime splits worked hours beyond standardDailyHours into the
// supplementary tier (first 2 hours) and the extraordinary tier (remainder).
// NightHours is always 0: the current policy only distinguishes by day
// length, not by time of day. A non-positive standard falls back to
// DefaultStandardDailyHours.
func ClassifyOvertime(workedHours, standardDailyHours float64) OvertimeSplit {
	if standardDailyHours <= 0 {
		standardDailyHours = DefaultStandardDailyHours
	}

	extra := workedHours - standardDailyHours
	if extra <= 0 {
		return OvertimeSplit{}
	}

	if extra <= SupplementaryCapHours {
		return OvertimeSplit{SupplementaryHours: extra}
	}
	return OvertimeSplit{
		SupplementaryHours: SupplementaryCapHours,
		ExtraordinaryHours: extra - SupplementaryCapHours,
	}
}

// RoundHours rounds an hours value to the two decimal places stored in the
// database.
func RoundHours(hours float64) decimal.Decimal {
	return decimal.NewFromFloat(hours).Round(2)
}
