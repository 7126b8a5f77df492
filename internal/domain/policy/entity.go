package policy

import (
	"time"
)

// Documented fallbacks used when the stored policy is missing or invalid.
// A missing grace period is a configuration warning, never an error.
const (
	DefaultGracePeriodMinutes = 30
	DefaultFullDayMinutes     = 480
	DefaultShiftStart         = "09:00"
)

// SaturdayPolicy controls which Saturdays are working days.
type SaturdayPolicy string

const (
	SaturdayAllWorking   SaturdayPolicy = "ALL_WORKING"
	SaturdayAllOff       SaturdayPolicy = "ALL_OFF"
	SaturdayOddWeeksOff  SaturdayPolicy = "ODD_WEEKS_OFF"  // 1st, 3rd, 5th Saturdays off
	SaturdayEvenWeeksOff SaturdayPolicy = "EVEN_WEEKS_OFF" // 2nd, 4th Saturdays off
)

func (p SaturdayPolicy) Valid() bool {
	switch p {
	case SaturdayAllWorking, SaturdayAllOff, SaturdayOddWeeksOff, SaturdayEvenWeeksOff:
		return true
	}
	return false
}

// Policy holds the attendance settings consulted during resolution.
type Policy struct {
	ID                      string
	GracePeriodMinutes      int
	SaturdayPolicy          SaturdayPolicy
	FullDayThresholdMinutes int
	// ShiftStart is the scheduled day start as "HH:MM" wall clock in the
	// organization timezone.
	ShiftStart string
	UpdatedAt  time.Time
}

// Normalized returns a copy with documented defaults applied to missing or
// invalid fields, and reports whether any fallback was used.
func (p Policy) Normalized() (Policy, bool) {
	fellBack := false
	if p.GracePeriodMinutes <= 0 {
		p.GracePeriodMinutes = DefaultGracePeriodMinutes
		fellBack = true
	}
	if p.FullDayThresholdMinutes <= 0 {
		p.FullDayThresholdMinutes = DefaultFullDayMinutes
		fellBack = true
	}
	if !p.SaturdayPolicy.Valid() {
		p.SaturdayPolicy = SaturdayAllWorking
		fellBack = true
	}
	if _, err := time.Parse("15:04", p.ShiftStart); err != nil {
		p.ShiftStart = DefaultShiftStart
		fellBack = true
	}
	return p, fellBack
}

// Default returns the policy used when none is stored at all.
func Default() Policy {
	p, _ := Policy{}.Normalized()
	return p
}

// ShiftStartOn anchors the shift start wall clock onto a calendar date.
func (p Policy) ShiftStartOn(date time.Time) time.Time {
	wall, err := time.Parse("15:04", p.ShiftStart)
	if err != nil {
		wall, _ = time.Parse("15:04", DefaultShiftStart)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		wall.Hour(), wall.Minute(), 0, 0, date.Location())
}

// IsWeeklyOff reports whether the date is a Sunday or a non-working Saturday
// under this policy. Saturday ordinals count weeks of the month: day 1-7 is
// the 1st Saturday, 8-14 the 2nd, and so on.
func (p Policy) IsWeeklyOff(date time.Time) bool {
	switch date.Weekday() {
	case time.Sunday:
		return true
	case time.Saturday:
		ordinal := (date.Day()-1)/7 + 1
		switch p.SaturdayPolicy {
		case SaturdayAllOff:
			return true
		case SaturdayOddWeeksOff:
			return ordinal%2 == 1
		case SaturdayEvenWeeksOff:
			return ordinal%2 == 0
		default:
			return false
		}
	}
	return false
}
