package holiday

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/pkg/validator"
)

type CreateHolidayRequest struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	IsTentative bool   `json:"is_tentative"`
}

func (r *CreateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type HolidayResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	IsTentative bool   `json:"is_tentative"`
	CreatedAt   string `json:"created_at"`
}

func NewHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:          h.ID,
		Date:        h.Date.Format("2006-01-02"),
		Name:        h.Name,
		IsTentative: h.IsTentative,
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
}
