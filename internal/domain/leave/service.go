package leave

import "context"

// Service is the application surface for leave requests.
type Service interface {
	// Apply files a leave request for the authenticated employee
	Apply(ctx context.Context, req ApplyRequest) (RequestResponse, error)

	// Approve transitions a pending request to approved
	Approve(ctx context.Context, id string) (RequestResponse, error)

	// Reject transitions a pending request to rejected
	Reject(ctx context.Context, id string) (RequestResponse, error)

	// ListMine returns the authenticated employee's requests, newest first
	ListMine(ctx context.Context) ([]RequestResponse, error)
}
