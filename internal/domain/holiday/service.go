package holiday

import "context"

// Service is the application surface for the holiday calendar.
type Service interface {
	// Create adds a holiday (tentative or confirmed)
	Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)

	// Confirm clears the tentative flag, making the holiday effective
	Confirm(ctx context.Context, id string) (HolidayResponse, error)

	// List returns holidays in [from, to]
	List(ctx context.Context, from, to string) ([]HolidayResponse, error)

	// Delete removes a holiday
	Delete(ctx context.Context, id string) error
}
