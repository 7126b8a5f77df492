package leave

import (
	"context"
	"time"
)

// Repository defines data access for leave requests.
type Repository interface {
	// Create inserts a new leave request (pending)
	Create(ctx context.Context, req Request) (Request, error)

	// GetByID retrieves a leave request
	GetByID(ctx context.Context, id string) (Request, error)

	// ListApprovedInRange returns an employee's approved requests that
	// intersect [from, to], ordered by start date
	ListApprovedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]Request, error)

	// ListByEmployee returns all of an employee's requests, newest first
	ListByEmployee(ctx context.Context, employeeID string) ([]Request, error)

	// UpdateStatus transitions a pending request to approved/rejected
	UpdateStatus(ctx context.Context, id string, status RequestStatus, decidedBy string, decidedAt time.Time) error
}
