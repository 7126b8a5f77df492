package policy

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/pkg/validator"
)

type UpdatePolicyRequest struct {
	GracePeriodMinutes      int    `json:"grace_period_minutes"`
	SaturdayPolicy          string `json:"saturday_policy"`
	FullDayThresholdMinutes int    `json:"full_day_threshold_minutes"`
	ShiftStart              string `json:"shift_start"`
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.GracePeriodMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "grace_period_minutes",
			Message: "grace_period_minutes must not be negative",
		})
	}

	if !SaturdayPolicy(r.SaturdayPolicy).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "saturday_policy",
			Message: "saturday_policy must be ALL_WORKING, ALL_OFF, ODD_WEEKS_OFF or EVEN_WEEKS_OFF",
		})
	}

	if r.FullDayThresholdMinutes <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "full_day_threshold_minutes",
			Message: "full_day_threshold_minutes must be positive",
		})
	}

	if _, err := time.Parse("15:04", r.ShiftStart); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_start",
			Message: "shift_start must be in HH:MM format",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PolicyResponse struct {
	GracePeriodMinutes      int    `json:"grace_period_minutes"`
	SaturdayPolicy          string `json:"saturday_policy"`
	FullDayThresholdMinutes int    `json:"full_day_threshold_minutes"`
	ShiftStart              string `json:"shift_start"`
	UpdatedAt               string `json:"updated_at"`
}

func NewPolicyResponse(p Policy) PolicyResponse {
	return PolicyResponse{
		GracePeriodMinutes:      p.GracePeriodMinutes,
		SaturdayPolicy:          string(p.SaturdayPolicy),
		FullDayThresholdMinutes: p.FullDayThresholdMinutes,
		ShiftStart:              p.ShiftStart,
		UpdatedAt:               p.UpdatedAt.Format(time.RFC3339),
	}
}
