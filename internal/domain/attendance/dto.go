package attendance

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type StartBreakRequest struct {
	Kind string `json:"kind"`
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if !BreakKind(r.Kind).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of paid, unpaid, lunch",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type OverrideRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

func (r *OverrideRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if st, err := ParseStatus(r.Status); err != nil || (st != StatusLate && st != StatusHalfDay) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be LATE or HALF_DAY",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DayStatusResponse is the wire shape of a resolved employee-day.
type DayStatusResponse struct {
	EmployeeID          string  `json:"employee_id"`
	Date                string  `json:"date"`
	Status              string  `json:"status"`
	StatusDisplay       string  `json:"status_display"`
	LeaveSubtype        *string `json:"leave_subtype,omitempty"`
	IsHalfDay           bool    `json:"is_half_day"`
	HalfDayReasonCode   *string `json:"half_day_reason_code,omitempty"`
	HalfDayReasonText   *string `json:"half_day_reason_text,omitempty"`
	LateMinutes         int     `json:"late_minutes"`
	TotalWorkedMinutes  int     `json:"total_worked_minutes"`
	TotalPayableMinutes int     `json:"total_payable_minutes"`
	Overridden          bool    `json:"overridden"`
}

// NewDayStatusResponse maps a ResolvedStatus onto the wire shape.
func NewDayStatusResponse(employeeID string, date time.Time, rs ResolvedStatus) DayStatusResponse {
	resp := DayStatusResponse{
		EmployeeID:          employeeID,
		Date:                date.Format("2006-01-02"),
		Status:              rs.Status.Code(),
		StatusDisplay:       rs.Status.String(),
		IsHalfDay:           rs.IsHalfDay,
		LateMinutes:         rs.LateMinutes,
		TotalWorkedMinutes:  rs.TotalWorkedMinutes,
		TotalPayableMinutes: rs.TotalPayableMinutes,
		Overridden:          rs.Overridden,
	}
	if rs.LeaveSubtype != SubtypeNone {
		sub := rs.LeaveSubtype.Code()
		resp.LeaveSubtype = &sub
	}
	if rs.HalfDayReasonCode != ReasonNone {
		code := string(rs.HalfDayReasonCode)
		resp.HalfDayReasonCode = &code
	}
	if rs.HalfDayReasonText != "" {
		text := rs.HalfDayReasonText
		resp.HalfDayReasonText = &text
	}
	return resp
}

type LogResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	Date         string   `json:"date"`
	ClockInTime  *string  `json:"clock_in_time"`
	ClockOutTime *string  `json:"clock_out_time"`
	Sessions     []SpanDTO `json:"sessions"`
	Breaks       []SpanDTO `json:"breaks"`
	Status       string   `json:"status"`
}

type SpanDTO struct {
	StartAt string  `json:"start_at"`
	EndAt   *string `json:"end_at"`
	Kind    *string `json:"kind,omitempty"`
}

// NewLogResponse maps a Log onto the wire shape.
func NewLogResponse(log Log) LogResponse {
	resp := LogResponse{
		ID:           log.ID,
		EmployeeID:   log.EmployeeID,
		Date:         log.Date.Format("2006-01-02"),
		ClockInTime:  timePtrToString(log.ClockIn),
		ClockOutTime: timePtrToString(log.ClockOut),
		Sessions:     make([]SpanDTO, 0, len(log.Sessions)),
		Breaks:       make([]SpanDTO, 0, len(log.Breaks)),
		Status:       log.Status.Code(),
	}
	for _, s := range log.Sessions {
		resp.Sessions = append(resp.Sessions, SpanDTO{
			StartAt: s.StartAt.Format(time.RFC3339),
			EndAt:   timePtrToRFC3339(s.EndAt),
		})
	}
	for _, b := range log.Breaks {
		kind := string(b.Kind)
		resp.Breaks = append(resp.Breaks, SpanDTO{
			StartAt: b.StartAt.Format(time.RFC3339),
			EndAt:   timePtrToRFC3339(b.EndAt),
			Kind:    &kind,
		})
	}
	return resp
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

func timePtrToRFC3339(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}
