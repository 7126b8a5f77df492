package holiday

import (
	"time"
)

// Holiday is a company holiday. Tentative holidays are excluded from status
// resolution until confirmed.
type Holiday struct {
	ID          string
	Date        time.Time
	Name        string
	IsTentative bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
