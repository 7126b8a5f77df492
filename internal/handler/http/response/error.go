package response

import (
	"errors"
	"net/http"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/employee"
	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
	"github.com/veritas-hq/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "Already clocked in")
	case errors.Is(err, attendance.ErrNotClockedIn):
		Conflict(w, "No open work session")
	case errors.Is(err, attendance.ErrBreakAlreadyOpen):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, attendance.ErrNoOpenBreak):
		Conflict(w, "No break in progress")
	case errors.Is(err, attendance.ErrBreakOutsideWork):
		Conflict(w, "Breaks require an open work session")
	case errors.Is(err, attendance.ErrInvalidOverrideStatus):
		BadRequest(w, "Override status must be LATE or HALF_DAY", nil)
	case errors.Is(err, attendance.ErrLogNotFound):
		NotFound(w, "Attendance log not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrInvalidDateRange):
		BadRequest(w, "Leave end date is before its start date", nil)
	case errors.Is(err, leave.ErrOverlappingRequest):
		Conflict(w, "An approved leave already covers part of that range")

	// Holiday domain errors
	case errors.Is(err, holiday.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, holiday.ErrHolidayExists):
		Conflict(w, "A holiday already exists on that date")

	// Policy domain errors
	case errors.Is(err, policy.ErrPolicyNotFound):
		NotFound(w, "Attendance policy not configured")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee account is deactivated")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
