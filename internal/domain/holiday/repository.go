package holiday

import (
	"context"
	"time"
)

// Repository defines data access for holidays.
type Repository interface {
	// Create inserts a new holiday
	Create(ctx context.Context, h Holiday) (Holiday, error)

	// GetByID retrieves a holiday
	GetByID(ctx context.Context, id string) (Holiday, error)

	// GetByDate retrieves the holiday on a date, or nil when none exists
	GetByDate(ctx context.Context, date time.Time) (*Holiday, error)

	// List retrieves holidays in [from, to] ordered by date
	List(ctx context.Context, from, to time.Time) ([]Holiday, error)

	// Confirm clears the tentative flag
	Confirm(ctx context.Context, id string) error

	// Delete removes a holiday
	Delete(ctx context.Context, id string) error
}
