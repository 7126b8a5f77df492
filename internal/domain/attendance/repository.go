package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance logs. Sessions and breaks are
// loaded with their log; mutations addressed by ID keep batch paths cheap.
type Repository interface {
	// Create inserts a new log row
	Create(ctx context.Context, log Log) (Log, error)

	// GetByID retrieves a log with its sessions and breaks
	GetByID(ctx context.Context, id string) (Log, error)

	// GetByEmployeeAndDate retrieves the single log for an employee-day, or
	// nil when none exists
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Log, error)

	// Update rewrites the log's scalar fields (not sessions/breaks)
	Update(ctx context.Context, log Log) error

	// ListForRange retrieves an employee's logs for [from, to] inclusive
	ListForRange(ctx context.Context, employeeID string, from, to time.Time) ([]Log, error)

	// AddSession appends a session to a log
	AddSession(ctx context.Context, logID string, s Session) (Session, error)

	// CloseSession sets the end timestamp of an open session
	CloseSession(ctx context.Context, sessionID string, endAt time.Time) error

	// AddBreak appends a break to a log
	AddBreak(ctx context.Context, logID string, b Break) (Break, error)

	// CloseBreak sets the end timestamp of an ongoing break
	CloseBreak(ctx context.Context, breakID string, endAt time.Time) error

	// ListStaleOpen returns logs that still have an open session although
	// their date ended before the cutoff. Used by the auto-close job.
	ListStaleOpen(ctx context.Context, before time.Time) ([]Log, error)

	// ListCorrectionCandidates pages logs in [from, to] that do not carry the
	// given provenance source, ordered by ID ascending starting after afterID.
	ListCorrectionCandidates(ctx context.Context, from, to time.Time, source string, afterID string, limit int) ([]Log, error)

	// ListCorrected pages logs carrying the given provenance source+version,
	// ordered by ID ascending starting after afterID.
	ListCorrected(ctx context.Context, source, version string, afterID string, limit int) ([]Log, error)
}
