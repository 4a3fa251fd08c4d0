package attendance

import "errors"

// Attendance domain errors
var (
	// ErrAlreadyRegistered marks a (employee, date) pair that already has a
	// record, whether found by the pre-check or raised by the unique
	// constraint when a concurrent batch won the race.
	ErrAlreadyRegistered = errors.New("attendance already registered for this date")

	ErrRecordNotFound = errors.New("attendance record not found")
	ErrNoAreasFound   = errors.New("none of the requested areas exist")
)
