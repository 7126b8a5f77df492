package leave

import "errors"

// Leave domain errors
var (
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already approved or rejected")
	ErrInvalidDateRange             = errors.New("leave end date is before its start date")
	ErrOverlappingRequest           = errors.New("an approved leave already covers part of that range")
)
