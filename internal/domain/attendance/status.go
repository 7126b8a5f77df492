package attendance

import "fmt"

// Status is the single authoritative classification of an employee-day.
// The set is closed; persistence uses Code() and display uses String().
type Status int

const (
	StatusUnknown Status = iota
	StatusHoliday
	StatusLeave
	StatusWeeklyOff
	StatusPresent
	StatusLate
	StatusHalfDay
	StatusAbsent
	StatusWorkingDay
)

// statusTable is the one place status codes and display strings live.
var statusTable = map[Status]struct {
	code    string
	display string
}{
	StatusHoliday:    {"HOLIDAY", "Holiday"},
	StatusLeave:      {"LEAVE", "Leave"},
	StatusWeeklyOff:  {"WEEKLY_OFF", "Weekly Off"},
	StatusPresent:    {"PRESENT", "Present"},
	StatusLate:       {"LATE", "Late"},
	StatusHalfDay:    {"HALF_DAY", "Half-day"},
	StatusAbsent:     {"ABSENT", "Absent"},
	StatusWorkingDay: {"WORKING_DAY", "Working Day"},
}

func (s Status) String() string {
	if row, ok := statusTable[s]; ok {
		return row.display
	}
	return "Unknown"
}

// Code returns the canonical storage/wire code for the status.
func (s Status) Code() string {
	if row, ok := statusTable[s]; ok {
		return row.code
	}
	return "UNKNOWN"
}

func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// ParseStatus maps a storage/wire code back to a Status.
func ParseStatus(code string) (Status, error) {
	for s, row := range statusTable {
		if row.code == code {
			return s, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown attendance status code %q", code)
}

// LeaveSubtype distinguishes the flavor of an approved leave day.
type LeaveSubtype int

const (
	SubtypeNone LeaveSubtype = iota
	SubtypeOrdinary
	SubtypeCompOff
	SubtypeSwap
)

var leaveSubtypeTable = map[LeaveSubtype]struct {
	code    string
	display string
}{
	SubtypeNone:     {"", ""},
	SubtypeOrdinary: {"ORDINARY", "Leave"},
	SubtypeCompOff:  {"COMP_OFF", "Comp-Off"},
	SubtypeSwap:     {"SWAP", "Swap Leave"},
}

func (s LeaveSubtype) String() string {
	return leaveSubtypeTable[s].display
}

func (s LeaveSubtype) Code() string {
	return leaveSubtypeTable[s].code
}

func ParseLeaveSubtype(code string) (LeaveSubtype, error) {
	for s, row := range leaveSubtypeTable {
		if row.code == code {
			return s, nil
		}
	}
	return SubtypeNone, fmt.Errorf("unknown leave subtype code %q", code)
}

// HalfDayReason codes attached to Late / Half-day classifications.
type HalfDayReason string

const (
	ReasonNone              HalfDayReason = ""
	ReasonLateLogin         HalfDayReason = "LATE_LOGIN"
	ReasonInsufficientHours HalfDayReason = "INSUFFICIENT_WORKING_HOURS"
	ReasonAdminOverride     HalfDayReason = "ADMIN_OVERRIDE"
)

// ResolvedStatus is the full classification the core exposes to presentation
// layers and to the backfill job.
type ResolvedStatus struct {
	Status              Status
	LeaveSubtype        LeaveSubtype
	IsHalfDay           bool
	HalfDayReasonCode   HalfDayReason
	HalfDayReasonText   string
	LateMinutes         int
	TotalWorkedMinutes  int
	TotalPayableMinutes int
	Overridden          bool
}
