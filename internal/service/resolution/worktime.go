package resolution

import (
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
)

// WorkTotals is the aggregated working time for one employee-day.
type WorkTotals struct {
	WorkedMinutes  int
	PayableMinutes int
	LateMinutes    int
}

// Aggregate converts a day's sessions and breaks into net worked, payable and
// late minutes. Open sessions and breaks are measured against asOf. All
// arithmetic compares elapsed instants, never wall-clock labels, so overnight
// sessions need no special casing.
//
// Worked minutes subtract only the part of a break that overlaps a session; a
// break lying in the gap between sessions subtracts nothing. Breaks tagged
// paid count back into payable minutes.
func Aggregate(sessions []attendance.Session, breaks []attendance.Break, shiftStart time.Time, asOf time.Time) WorkTotals {
	var sessionTotal, breakTotal, paidBreakTotal time.Duration

	for _, s := range sessions {
		end := spanEnd(s.EndAt, asOf)
		dur := end.Sub(s.StartAt)
		if dur < 0 {
			dur = 0
		}
		sessionTotal += dur
	}

	for _, b := range breaks {
		bEnd := spanEnd(b.EndAt, asOf)
		for _, s := range sessions {
			sEnd := spanEnd(s.EndAt, asOf)
			overlap := minTime(sEnd, bEnd).Sub(maxTime(s.StartAt, b.StartAt))
			if overlap <= 0 {
				continue
			}
			breakTotal += overlap
			if b.Kind.Paid() {
				paidBreakTotal += overlap
			}
		}
	}

	worked := sessionTotal - breakTotal
	if worked < 0 {
		worked = 0
	}
	payable := worked + paidBreakTotal

	totals := WorkTotals{
		WorkedMinutes:  int(worked.Minutes()),
		PayableMinutes: int(payable.Minutes()),
	}

	if len(sessions) > 0 && sessions[0].StartAt.After(shiftStart) {
		totals.LateMinutes = int(sessions[0].StartAt.Sub(shiftStart).Minutes())
	}

	return totals
}

func spanEnd(endAt *time.Time, asOf time.Time) time.Time {
	if endAt != nil {
		return *endAt
	}
	return asOf
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
