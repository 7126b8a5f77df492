package leave

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/pkg/validator"
)

type ApplyRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	Reason    string `json:"reason"`
}

func (r *ApplyRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if !Type(r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be full_day or half_day",
		})
	}

	if sub, err := attendance.ParseLeaveSubtype(r.Subtype); err != nil || sub == attendance.SubtypeNone {
		errs = append(errs, validator.ValidationError{
			Field:   "subtype",
			Message: "subtype must be ORDINARY, COMP_OFF or SWAP",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RequestResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Status     string  `json:"status"`
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	Reason     *string `json:"reason,omitempty"`
	DecidedBy  *string `json:"decided_by,omitempty"`
	DecidedAt  *string `json:"decided_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func NewRequestResponse(req Request) RequestResponse {
	resp := RequestResponse{
		ID:         req.ID,
		EmployeeID: req.EmployeeID,
		StartDate:  req.StartDate.Format("2006-01-02"),
		EndDate:    req.EndDate.Format("2006-01-02"),
		Status:     string(req.Status),
		Type:       string(req.Type),
		Subtype:    req.Subtype.Code(),
		Reason:     req.Reason,
		DecidedBy:  req.DecidedBy,
		CreatedAt:  req.CreatedAt.Format(time.RFC3339),
	}
	if req.DecidedAt != nil {
		decided := req.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &decided
	}
	return resp
}
