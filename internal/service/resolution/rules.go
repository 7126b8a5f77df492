package resolution

import (
	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
)

// Rule is one evaluator in the precedence cascade. Evaluate returns the
// definitive status and true, or false to pass to the next rule.
type Rule interface {
	Name() string
	Evaluate(rctx Context) (attendance.ResolvedStatus, bool)
}

// defaultRules returns the cascade in precedence order. The final rule always
// matches.
func defaultRules() []Rule {
	return []Rule{
		holidayRule{},
		leaveRule{},
		overrideRule{},
		weeklyOffRule{},
		clockedInRule{},
		absentRule{},
		pendingRule{},
	}
}

// withTotals copies the aggregated figures onto a result. Every status
// reports worked minutes for display, whatever the classification.
func withTotals(rs attendance.ResolvedStatus, rctx Context) attendance.ResolvedStatus {
	rs.LateMinutes = rctx.Totals.LateMinutes
	rs.TotalWorkedMinutes = rctx.Totals.WorkedMinutes
	rs.TotalPayableMinutes = rctx.Totals.PayableMinutes
	return rs
}

// holidayRule: a confirmed holiday wins over everything, sessions included.
type holidayRule struct{}

func (holidayRule) Name() string { return "holiday" }

func (holidayRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	if rctx.Holiday == nil {
		return attendance.ResolvedStatus{}, false
	}
	return withTotals(attendance.ResolvedStatus{Status: attendance.StatusHoliday}, rctx), true
}

// leaveRule: an approved leave covering the date classifies it as Leave,
// subtyped by the request. A half-day-type leave keeps the Leave
// classification; worked minutes overlay for display.
type leaveRule struct{}

func (leaveRule) Name() string { return "leave" }

func (leaveRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	if rctx.Leave == nil {
		return attendance.ResolvedStatus{}, false
	}
	rs := attendance.ResolvedStatus{
		Status:       attendance.StatusLeave,
		LeaveSubtype: rctx.Leave.Subtype,
	}
	return withTotals(rs, rctx), true
}

// overrideRule: an admin override pins the status to Late or Half-day,
// bypassing the weekly-off, lateness and absence rules.
type overrideRule struct{}

func (overrideRule) Name() string { return "admin_override" }

func (overrideRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	if rctx.Log == nil || !rctx.Log.AdminOverride {
		return attendance.ResolvedStatus{}, false
	}
	status := attendance.StatusLate
	if rctx.Log.OverrideStatus != nil {
		status = *rctx.Log.OverrideStatus
	}
	rs := attendance.ResolvedStatus{
		Status:     status,
		Overridden: true,
	}
	if status == attendance.StatusHalfDay {
		rs.IsHalfDay = true
		rs.HalfDayReasonCode = attendance.ReasonAdminOverride
	}
	if rctx.Log.HalfDayReasonText != nil {
		rs.HalfDayReasonText = *rctx.Log.HalfDayReasonText
	}
	return withTotals(rs, rctx), true
}

// weeklyOffRule: Sundays and non-working Saturdays under policy. No lateness
// or absence evaluation happens on a weekly off.
type weeklyOffRule struct{}

func (weeklyOffRule) Name() string { return "weekly_off" }

func (weeklyOffRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	if !rctx.Policy.IsWeeklyOff(rctx.Date) {
		return attendance.ResolvedStatus{}, false
	}
	return withTotals(attendance.ResolvedStatus{Status: attendance.StatusWeeklyOff}, rctx), true
}

// clockedInRule: the day has a clock-in, so evaluate lateness and
// completeness. When a day is both late beyond grace and short of the
// full-day threshold, the late-login reason wins: lateness is checked first,
// so HalfDay/INSUFFICIENT_WORKING_HOURS can only come from an on-time day.
type clockedInRule struct{}

func (clockedInRule) Name() string { return "clocked_in" }

func (clockedInRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	if !rctx.HasClockIn() {
		return attendance.ResolvedStatus{}, false
	}

	if rctx.Totals.LateMinutes > rctx.Policy.GracePeriodMinutes {
		rs := attendance.ResolvedStatus{
			Status:            attendance.StatusLate,
			HalfDayReasonCode: attendance.ReasonLateLogin,
		}
		return withTotals(rs, rctx), true
	}

	clockedOut := rctx.Log.ClockOut != nil
	if clockedOut && rctx.Totals.WorkedMinutes < rctx.Policy.FullDayThresholdMinutes {
		rs := attendance.ResolvedStatus{
			Status:            attendance.StatusHalfDay,
			IsHalfDay:         true,
			HalfDayReasonCode: attendance.ReasonInsufficientHours,
			HalfDayReasonText: "Worked below the full-day threshold",
		}
		return withTotals(rs, rctx), true
	}

	return withTotals(attendance.ResolvedStatus{Status: attendance.StatusPresent}, rctx), true
}

// absentRule: no clock-in and the day is strictly in the past.
type absentRule struct{}

func (absentRule) Name() string { return "absent" }

func (absentRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	if !rctx.Date.Before(rctx.Today) {
		return attendance.ResolvedStatus{}, false
	}
	return withTotals(attendance.ResolvedStatus{Status: attendance.StatusAbsent}, rctx), true
}

// pendingRule: today or a future day with no clock-in yet. Always matches.
type pendingRule struct{}

func (pendingRule) Name() string { return "pending" }

func (pendingRule) Evaluate(rctx Context) (attendance.ResolvedStatus, bool) {
	return withTotals(attendance.ResolvedStatus{Status: attendance.StatusWorkingDay}, rctx), true
}
