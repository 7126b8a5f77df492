package leave

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
)

// RequestStatus is the approval state of a leave request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Type distinguishes full-day leave from the half-day variant. A half-day
// leave still classifies the day as Leave; worked minutes overlay for display.
type Type string

const (
	TypeFullDay Type = "full_day"
	TypeHalfDay Type = "half_day"
)

func (t Type) Valid() bool {
	return t == TypeFullDay || t == TypeHalfDay
}

// Request is a leave request covering an inclusive date span.
type Request struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Status     RequestStatus
	Subtype    attendance.LeaveSubtype
	Type       Type
	Reason     *string
	DecidedBy  *string
	DecidedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Covers reports whether the request spans the given date (both normalized to
// midnight in the organization zone).
func (r Request) Covers(date time.Time) bool {
	return !date.Before(r.StartDate) && !date.After(r.EndDate)
}
