package policy

import (
	"context"
)

// Repository defines data access for the attendance policy. One policy row
// exists per installation.
type Repository interface {
	// Get retrieves the current policy; ErrPolicyNotFound when unset
	Get(ctx context.Context) (Policy, error)

	// Upsert stores the policy
	Upsert(ctx context.Context, p Policy) (Policy, error)
}
