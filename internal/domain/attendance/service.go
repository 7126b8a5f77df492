package attendance

import "context"

// Service is the application surface for attendance tracking and day-status
// queries.
type Service interface {
	// ClockIn opens a work session for the authenticated employee
	ClockIn(ctx context.Context) (LogResponse, error)

	// ClockOut closes the open session (and any ongoing break)
	ClockOut(ctx context.Context) (LogResponse, error)

	// StartBreak opens a break inside the current session
	StartBreak(ctx context.Context, req StartBreakRequest) (LogResponse, error)

	// EndBreak closes the ongoing break
	EndBreak(ctx context.Context) (LogResponse, error)

	// Override pins an admin-chosen status (Late or Half-day) onto a day
	Override(ctx context.Context, req OverrideRequest) (DayStatusResponse, error)

	// DayStatus resolves the status of one employee-day
	DayStatus(ctx context.Context, employeeID, date string) (DayStatusResponse, error)

	// MonthStatuses resolves every day of a calendar month
	MonthStatuses(ctx context.Context, employeeID string, year, month int) ([]DayStatusResponse, error)
}
