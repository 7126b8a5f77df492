package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_DisplayStrings(t *testing.T) {
	cases := map[Status]string{
		StatusHoliday:    "Holiday",
		StatusLeave:      "Leave",
		StatusWeeklyOff:  "Weekly Off",
		StatusPresent:    "Present",
		StatusLate:       "Late",
		StatusHalfDay:    "Half-day",
		StatusAbsent:     "Absent",
		StatusWorkingDay: "Working Day",
	}
	for status, display := range cases {
		assert.Equal(t, display, status.String())
	}
	assert.Equal(t, "Unknown", StatusUnknown.String())
}

func TestStatus_CodeRoundTrip(t *testing.T) {
	all := []Status{
		StatusHoliday, StatusLeave, StatusWeeklyOff, StatusPresent,
		StatusLate, StatusHalfDay, StatusAbsent, StatusWorkingDay,
	}
	for _, status := range all {
		parsed, err := ParseStatus(status.Code())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseStatus("NOT_A_STATUS")
	assert.Error(t, err)
}

func TestLeaveSubtype_CodeRoundTrip(t *testing.T) {
	for _, sub := range []LeaveSubtype{SubtypeNone, SubtypeOrdinary, SubtypeCompOff, SubtypeSwap} {
		parsed, err := ParseLeaveSubtype(sub.Code())
		require.NoError(t, err)
		assert.Equal(t, sub, parsed)
	}
}

func TestBreakKind(t *testing.T) {
	assert.True(t, BreakPaid.Valid())
	assert.True(t, BreakLunch.Valid())
	assert.False(t, BreakKind("coffee").Valid())

	assert.True(t, BreakPaid.Paid())
	assert.False(t, BreakUnpaid.Paid())
	assert.False(t, BreakLunch.Paid())
}
