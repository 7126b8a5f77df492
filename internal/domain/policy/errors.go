package policy

import "errors"

// Policy domain errors
var (
	ErrPolicyNotFound = errors.New("attendance policy not found")
)
