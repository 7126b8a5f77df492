package resolution

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
)

// Context is the immutable input to one status resolution. It is assembled
// once per evaluation and threaded through the rule chain; rules never read
// mutable state mid-cascade.
type Context struct {
	// Date is the day under evaluation, midnight in the organization zone.
	Date time.Time
	// Today is the current day, midnight in the organization zone.
	Today time.Time
	// Log is the attendance record for the day, nil when none exists.
	Log *attendance.Log
	// Holiday is the confirmed holiday on Date, nil when none. Tentative
	// holidays are filtered out before the context is built.
	Holiday *holiday.Holiday
	// Leave is the approved leave request covering Date, nil when none.
	Leave *leave.Request
	// Policy has documented defaults already applied.
	Policy policy.Policy
	// Totals is the aggregated working time for the day.
	Totals WorkTotals
}

// HasClockIn reports whether the day has any clock-in.
func (c Context) HasClockIn() bool {
	return c.Log != nil && c.Log.ClockIn != nil
}
