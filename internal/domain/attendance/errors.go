package attendance

import "errors"

// Attendance domain errors
var (
	// Clock errors
	ErrAlreadyClockedIn = errors.New("an attendance session is already open for today")
	ErrNotClockedIn     = errors.New("no open attendance session to clock out of")
	ErrBreakAlreadyOpen = errors.New("a break is already in progress")
	ErrNoOpenBreak      = errors.New("no break in progress")
	ErrBreakOutsideWork = errors.New("cannot start a break without an open session")

	// Override errors
	ErrInvalidOverrideStatus = errors.New("admin override status must be Late or Half-day")

	// General errors
	ErrLogNotFound = errors.New("attendance record not found")
)
