package attendance

import (
	"time"
)

// BreakKind tags a break for payable-minute calculation. Paid breaks count
// toward payable time; unpaid and lunch breaks do not.
type BreakKind string

const (
	BreakPaid   BreakKind = "paid"
	BreakUnpaid BreakKind = "unpaid"
	BreakLunch  BreakKind = "lunch"
)

func (k BreakKind) Valid() bool {
	switch k {
	case BreakPaid, BreakUnpaid, BreakLunch:
		return true
	}
	return false
}

func (k BreakKind) Paid() bool {
	return k == BreakPaid
}

// Session is one continuous clocked-in span. A nil EndAt means the session is
// still open and is measured against the evaluation instant.
type Session struct {
	ID      string
	StartAt time.Time
	EndAt   *time.Time
}

func (s Session) Open() bool {
	return s.EndAt == nil
}

// Break is a pause inside the working day. A nil EndAt means the break is
// ongoing.
type Break struct {
	ID      string
	StartAt time.Time
	EndAt   *time.Time
	Kind    BreakKind
}

func (b Break) Open() bool {
	return b.EndAt == nil
}

// Log is the attendance record for one (employee, calendar date). At most one
// exists per key; sessions are ordered and non-overlapping.
type Log struct {
	ID         string
	EmployeeID string
	// Date is midnight in the organization timezone.
	Date     time.Time
	Sessions []Session
	Breaks   []Break
	ClockIn  *time.Time
	ClockOut *time.Time

	// Resolved fields, derived by the resolver and cached on the row.
	Status              Status
	IsHalfDay           bool
	HalfDayReasonCode   HalfDayReason
	HalfDayReasonText   *string
	LateMinutes         int
	TotalWorkedMinutes  int
	TotalPayableMinutes int

	// Admin override. When set, OverrideStatus (Late or Half-day) wins over
	// the weekly-off/lateness/absence rules.
	AdminOverride  bool
	OverrideStatus *Status

	// Backfill provenance. Set only by the correction job; PrevStatus and
	// friends hold the pre-correction values so rollback is an exact restore.
	CorrectionSource      *string
	CorrectionVersion     *string
	CorrectionReason      *string
	CorrectedAt           *time.Time
	PrevStatus            *Status
	PrevIsHalfDay         *bool
	PrevHalfDayReasonCode *HalfDayReason

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OpenSession returns the log's open session, if any.
func (l *Log) OpenSession() *Session {
	for i := range l.Sessions {
		if l.Sessions[i].Open() {
			return &l.Sessions[i]
		}
	}
	return nil
}

// OpenBreak returns the log's ongoing break, if any.
func (l *Log) OpenBreak() *Break {
	for i := range l.Breaks {
		if l.Breaks[i].Open() {
			return &l.Breaks[i]
		}
	}
	return nil
}

// Corrected reports whether the given job has already processed this log.
func (l *Log) Corrected(source string) bool {
	return l.CorrectionSource != nil && *l.CorrectionSource == source
}
