package policy

import "context"

// Service is the application surface for the attendance policy.
type Service interface {
	// Get returns the effective policy, with defaults applied when unset
	Get(ctx context.Context) (PolicyResponse, error)

	// Update stores a new policy and flushes dependent caches
	Update(ctx context.Context, req UpdatePolicyRequest) (PolicyResponse, error)
}
