package employee

import (
	"context"
)

// Repository defines data access for employees.
type Repository interface {
	// GetByID retrieves an employee
	GetByID(ctx context.Context, id string) (Employee, error)

	// GetByEmail retrieves an employee by email
	GetByEmail(ctx context.Context, email string) (Employee, error)

	// Exists reports whether an active employee with the ID exists
	Exists(ctx context.Context, id string) (bool, error)
}
