package resolution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// baseCtx is a past working Monday with a full clocked-out day.
func baseCtx() Context {
	d := date(2024, 3, 4)
	clockIn := d.Add(9 * time.Hour)
	clockOut := d.Add(18 * time.Hour)
	return Context{
		Date:  d,
		Today: date(2024, 3, 8),
		Log: &attendance.Log{
			EmployeeID: "emp-1",
			Date:       d,
			ClockIn:    &clockIn,
			ClockOut:   &clockOut,
			Sessions:   []attendance.Session{{StartAt: clockIn, EndAt: &clockOut}},
		},
		Policy: policy.Default(),
		Totals: WorkTotals{WorkedMinutes: 540, PayableMinutes: 540},
	}
}

func resolve(rctx Context) attendance.ResolvedStatus {
	return NewResolver().Resolve(rctx)
}

func TestResolve_ConfirmedHolidayWinsOverSessions(t *testing.T) {
	rctx := baseCtx()
	rctx.Holiday = &holiday.Holiday{Date: rctx.Date, Name: "Founders Day"}

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusHoliday, rs.Status)
	// Worked minutes still reported for display.
	assert.Equal(t, 540, rs.TotalWorkedMinutes)
}

func TestResolve_ApprovedLeaveSubtypes(t *testing.T) {
	cases := []struct {
		subtype attendance.LeaveSubtype
	}{
		{attendance.SubtypeOrdinary},
		{attendance.SubtypeCompOff},
		{attendance.SubtypeSwap},
	}
	for _, tc := range cases {
		rctx := baseCtx()
		rctx.Leave = &leave.Request{
			EmployeeID: "emp-1",
			StartDate:  rctx.Date,
			EndDate:    rctx.Date,
			Status:     leave.StatusApproved,
			Subtype:    tc.subtype,
			Type:       leave.TypeFullDay,
		}

		rs := resolve(rctx)

		assert.Equal(t, attendance.StatusLeave, rs.Status)
		assert.Equal(t, tc.subtype, rs.LeaveSubtype)
	}
}

func TestResolve_HalfDayLeaveKeepsLeaveClassification(t *testing.T) {
	rctx := baseCtx()
	rctx.Leave = &leave.Request{
		StartDate: rctx.Date,
		EndDate:   rctx.Date,
		Status:    leave.StatusApproved,
		Subtype:   attendance.SubtypeOrdinary,
		Type:      leave.TypeHalfDay,
	}
	rctx.Totals = WorkTotals{WorkedMinutes: 240, PayableMinutes: 240}

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusLeave, rs.Status)
	// Worked minutes overlay for display without changing the status.
	assert.Equal(t, 240, rs.TotalWorkedMinutes)
}

func TestResolve_AdminOverride(t *testing.T) {
	halfDay := attendance.StatusHalfDay
	reason := "Approved early departure"

	rctx := baseCtx()
	rctx.Log.AdminOverride = true
	rctx.Log.OverrideStatus = &halfDay
	rctx.Log.HalfDayReasonText = &reason

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusHalfDay, rs.Status)
	assert.True(t, rs.IsHalfDay)
	assert.True(t, rs.Overridden)
	assert.Equal(t, attendance.ReasonAdminOverride, rs.HalfDayReasonCode)
	assert.Equal(t, reason, rs.HalfDayReasonText)
}

func TestResolve_AdminOverrideLate(t *testing.T) {
	late := attendance.StatusLate

	rctx := baseCtx()
	rctx.Log.AdminOverride = true
	rctx.Log.OverrideStatus = &late

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusLate, rs.Status)
	assert.False(t, rs.IsHalfDay)
	assert.True(t, rs.Overridden)
}

func TestResolve_OverrideBeatsWeeklyOff(t *testing.T) {
	late := attendance.StatusLate

	rctx := baseCtx()
	rctx.Date = date(2024, 3, 3) // Sunday
	rctx.Log.AdminOverride = true
	rctx.Log.OverrideStatus = &late

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusLate, rs.Status)
}

func TestResolve_Sundays(t *testing.T) {
	rctx := baseCtx()
	rctx.Date = date(2024, 3, 3) // Sunday
	rctx.Log = nil
	rctx.Totals = WorkTotals{}

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusWeeklyOff, rs.Status)
}

func TestResolve_SaturdayPolicies(t *testing.T) {
	first := date(2024, 3, 2)  // 1st Saturday
	second := date(2024, 3, 9) // 2nd Saturday

	cases := []struct {
		name     string
		policy   policy.SaturdayPolicy
		date     time.Time
		weeklyOff bool
	}{
		{"all working", policy.SaturdayAllWorking, first, false},
		{"all off", policy.SaturdayAllOff, first, true},
		{"odd weeks off, 1st", policy.SaturdayOddWeeksOff, first, true},
		{"odd weeks off, 2nd", policy.SaturdayOddWeeksOff, second, false},
		{"even weeks off, 1st", policy.SaturdayEvenWeeksOff, first, false},
		{"even weeks off, 2nd", policy.SaturdayEvenWeeksOff, second, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rctx := baseCtx()
			rctx.Date = tc.date
			rctx.Log = nil
			rctx.Totals = WorkTotals{}
			rctx.Policy.SaturdayPolicy = tc.policy

			rs := resolve(rctx)

			if tc.weeklyOff {
				assert.Equal(t, attendance.StatusWeeklyOff, rs.Status)
			} else {
				// A past Saturday with no clock-in on a working-Saturday
				// policy is an absence.
				assert.Equal(t, attendance.StatusAbsent, rs.Status)
			}
		})
	}
}

func TestResolve_LatenessWithinGraceIsPresent(t *testing.T) {
	// Clock-in 09:15 against a 09:00 shift with 30 minutes grace.
	rctx := baseCtx()
	rctx.Totals.LateMinutes = 15

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusPresent, rs.Status)
	assert.Equal(t, 15, rs.LateMinutes)
}

func TestResolve_LatenessBeyondGraceIsLate(t *testing.T) {
	// Clock-in 09:45 against a 09:00 shift with 30 minutes grace.
	rctx := baseCtx()
	rctx.Totals.LateMinutes = 45

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusLate, rs.Status)
	assert.Equal(t, attendance.ReasonLateLogin, rs.HalfDayReasonCode)
}

func TestResolve_InsufficientHoursIsHalfDay(t *testing.T) {
	rctx := baseCtx()
	rctx.Totals.WorkedMinutes = 470 // 7h50m

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusHalfDay, rs.Status)
	assert.True(t, rs.IsHalfDay)
	assert.Equal(t, attendance.ReasonInsufficientHours, rs.HalfDayReasonCode)
}

func TestResolve_LateAndShortPrefersLateLogin(t *testing.T) {
	rctx := baseCtx()
	rctx.Totals.LateMinutes = 45
	rctx.Totals.WorkedMinutes = 470

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusLate, rs.Status)
	assert.Equal(t, attendance.ReasonLateLogin, rs.HalfDayReasonCode)
}

func TestResolve_StillClockedInShortDayIsPresent(t *testing.T) {
	// Not clocked out yet: the half-day check waits for the clock-out.
	rctx := baseCtx()
	rctx.Log.ClockOut = nil
	rctx.Totals.WorkedMinutes = 200

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusPresent, rs.Status)
}

func TestResolve_NoClockInPastIsAbsent(t *testing.T) {
	rctx := baseCtx()
	rctx.Log = nil
	rctx.Totals = WorkTotals{}

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusAbsent, rs.Status)
}

func TestResolve_NoClockInTodayIsWorkingDay(t *testing.T) {
	rctx := baseCtx()
	rctx.Log = nil
	rctx.Totals = WorkTotals{}
	rctx.Today = rctx.Date

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusWorkingDay, rs.Status)
}

func TestResolve_NoClockInFutureIsWorkingDay(t *testing.T) {
	rctx := baseCtx()
	rctx.Log = nil
	rctx.Totals = WorkTotals{}
	rctx.Today = date(2024, 3, 1)

	rs := resolve(rctx)

	assert.Equal(t, attendance.StatusWorkingDay, rs.Status)
}

func TestResolve_CascadeOrder(t *testing.T) {
	// Holiday beats leave beats override.
	late := attendance.StatusLate

	rctx := baseCtx()
	rctx.Holiday = &holiday.Holiday{Date: rctx.Date, Name: "Founders Day"}
	rctx.Leave = &leave.Request{
		StartDate: rctx.Date, EndDate: rctx.Date,
		Status: leave.StatusApproved, Subtype: attendance.SubtypeOrdinary, Type: leave.TypeFullDay,
	}
	rctx.Log.AdminOverride = true
	rctx.Log.OverrideStatus = &late

	assert.Equal(t, attendance.StatusHoliday, resolve(rctx).Status)

	rctx.Holiday = nil
	assert.Equal(t, attendance.StatusLeave, resolve(rctx).Status)

	rctx.Leave = nil
	assert.Equal(t, attendance.StatusLate, resolve(rctx).Status)
}
