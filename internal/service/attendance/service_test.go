package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

// passTx satisfies TxRunner without a database.
type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	mu   sync.Mutex
	logs map[string]*attendance.Log
}

func newMemRepo() *memRepo {
	return &memRepo{logs: make(map[string]*attendance.Log)}
}

func (m *memRepo) Create(_ context.Context, log attendance.Log) (attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	cp := log
	m.logs[log.ID] = &cp
	return log, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log, ok := m.logs[id]; ok {
		return *log, nil
	}
	return attendance.Log{}, attendance.ErrLogNotFound
}

func (m *memRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		if log.EmployeeID == employeeID && log.Date.Equal(date) {
			cp := *log
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Update(_ context.Context, log attendance.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.logs[log.ID]
	if !ok {
		return attendance.ErrLogNotFound
	}
	sessions, breaks := stored.Sessions, stored.Breaks
	cp := log
	cp.Sessions, cp.Breaks = sessions, breaks
	m.logs[log.ID] = &cp
	return nil
}

func (m *memRepo) ListForRange(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Log
	for _, log := range m.logs {
		if log.EmployeeID == employeeID && !log.Date.Before(from) && !log.Date.After(to) {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (m *memRepo) AddSession(_ context.Context, logID string, s attendance.Session) (attendance.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.logs[logID].Sessions = append(m.logs[logID].Sessions, s)
	return s, nil
}

func (m *memRepo) CloseSession(_ context.Context, sessionID string, endAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		for i := range log.Sessions {
			if log.Sessions[i].ID == sessionID && log.Sessions[i].EndAt == nil {
				log.Sessions[i].EndAt = &endAt
				return nil
			}
		}
	}
	return attendance.ErrNotClockedIn
}

func (m *memRepo) AddBreak(_ context.Context, logID string, b attendance.Break) (attendance.Break, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	m.logs[logID].Breaks = append(m.logs[logID].Breaks, b)
	return b, nil
}

func (m *memRepo) CloseBreak(_ context.Context, breakID string, endAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		for i := range log.Breaks {
			if log.Breaks[i].ID == breakID && log.Breaks[i].EndAt == nil {
				log.Breaks[i].EndAt = &endAt
				return nil
			}
		}
	}
	return attendance.ErrNoOpenBreak
}

func (m *memRepo) ListStaleOpen(_ context.Context, before time.Time) ([]attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Log
	for _, log := range m.logs {
		if log.Date.Before(before) && log.OpenSession() != nil {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (m *memRepo) ListCorrectionCandidates(_ context.Context, from, to time.Time, source string, afterID string, limit int) ([]attendance.Log, error) {
	return nil, nil
}

func (m *memRepo) ListCorrected(_ context.Context, source, version string, afterID string, limit int) ([]attendance.Log, error) {
	return nil, nil
}

type noHolidays struct{}

func (noHolidays) GetByDate(context.Context, time.Time) (*holiday.Holiday, error) { return nil, nil }

type noLeaves struct{}

func (noLeaves) ListApprovedInRange(context.Context, string, time.Time, time.Time) ([]leave.Request, error) {
	return nil, nil
}

type fixedPolicy struct{}

func (fixedPolicy) Get(context.Context) (policy.Policy, error) {
	return policy.Default(), nil
}

func newTestService(t *testing.T) (attendance.Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	resolver := resolution.NewService(repo, noHolidays{}, noLeaves{}, fixedPolicy{}, time.UTC)
	return NewAttendanceService(passTx{}, repo, resolver), repo
}

func authedCtx(t *testing.T, employeeID string) context.Context {
	t.Helper()
	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	tok, _, err := auth.Encode(map[string]interface{}{"employee_id": employeeID})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), tok, nil)
}

func TestClockIn_OpensSession(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	resp, err := svc.ClockIn(ctx)
	require.NoError(t, err)
	assert.Len(t, resp.Sessions, 1)
	assert.Nil(t, resp.Sessions[0].EndAt)
	assert.NotNil(t, resp.ClockInTime)

	log, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.NotNil(t, log.OpenSession())
}

func TestClockIn_TwiceFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	_, err := svc.ClockIn(ctx)
	require.NoError(t, err)

	_, err = svc.ClockIn(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
}

func TestClockOut_ClosesSessionAndBreak(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	in, err := svc.ClockIn(ctx)
	require.NoError(t, err)
	_, err = svc.StartBreak(ctx, attendance.StartBreakRequest{Kind: "lunch"})
	require.NoError(t, err)

	resp, err := svc.ClockOut(ctx)
	require.NoError(t, err)
	assert.NotNil(t, resp.ClockOutTime)

	log, err := repo.GetByID(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Nil(t, log.OpenSession())
	assert.Nil(t, log.OpenBreak())
}

func TestClockOut_WithoutClockInFails(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ClockOut(authedCtx(t, "emp-1"))
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)
}

func TestClockIn_ReentryOpensSecondSession(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	first, err := svc.ClockIn(ctx)
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx)
	require.NoError(t, err)

	resp, err := svc.ClockIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, resp.ID)
	assert.Len(t, resp.Sessions, 2)
	assert.Nil(t, resp.ClockOutTime)

	log, err := repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Nil(t, log.ClockOut)
}

func TestStartBreak_RequiresOpenSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	_, err := svc.StartBreak(ctx, attendance.StartBreakRequest{Kind: "paid"})
	assert.ErrorIs(t, err, attendance.ErrBreakOutsideWork)

	_, err = svc.ClockIn(ctx)
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx)
	require.NoError(t, err)

	_, err = svc.StartBreak(ctx, attendance.StartBreakRequest{Kind: "paid"})
	assert.ErrorIs(t, err, attendance.ErrBreakOutsideWork)
}

func TestStartBreak_TwiceFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	_, err := svc.ClockIn(ctx)
	require.NoError(t, err)
	_, err = svc.StartBreak(ctx, attendance.StartBreakRequest{Kind: "unpaid"})
	require.NoError(t, err)

	_, err = svc.StartBreak(ctx, attendance.StartBreakRequest{Kind: "paid"})
	assert.ErrorIs(t, err, attendance.ErrBreakAlreadyOpen)
}

func TestStartBreak_RejectsUnknownKind(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StartBreak(authedCtx(t, "emp-1"), attendance.StartBreakRequest{Kind: "siesta"})
	assert.Error(t, err)
}

func TestEndBreak_WithoutOpenBreakFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := authedCtx(t, "emp-1")

	_, err := svc.ClockIn(ctx)
	require.NoError(t, err)

	_, err = svc.EndBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrNoOpenBreak)
}

func TestOverride_PinsStatusOnEmptyDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := authedCtx(t, "admin-1")
	day := "2024-03-04"

	// Warm the cache with the unmodified day first; the override must not
	// serve the stale entry.
	before, err := svc.DayStatus(ctx, "emp-9", day)
	require.NoError(t, err)
	assert.False(t, before.Overridden)

	resp, err := svc.Override(ctx, attendance.OverrideRequest{
		EmployeeID: "emp-9",
		Date:       day,
		Status:     "HALF_DAY",
		Reason:     "client visit, left early",
	})
	require.NoError(t, err)
	assert.True(t, resp.Overridden)
	assert.Equal(t, "HALF_DAY", resp.Status)
	assert.True(t, resp.IsHalfDay)
	require.NotNil(t, resp.HalfDayReasonCode)
	assert.Equal(t, string(attendance.ReasonAdminOverride), *resp.HalfDayReasonCode)

	after, err := svc.DayStatus(ctx, "emp-9", day)
	require.NoError(t, err)
	assert.True(t, after.Overridden)
}

func TestOverride_RejectsDisallowedStatus(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Override(authedCtx(t, "admin-1"), attendance.OverrideRequest{
		EmployeeID: "emp-9",
		Date:       "2024-03-04",
		Status:     "PRESENT",
		Reason:     "should not work",
	})
	assert.Error(t, err)
}

func TestMonthStatuses_CoversEveryDay(t *testing.T) {
	svc, _ := newTestService(t)

	out, err := svc.MonthStatuses(authedCtx(t, "emp-1"), "emp-1", 2024, 2)
	require.NoError(t, err)
	require.Len(t, out, 29)
	assert.Equal(t, "2024-02-01", out[0].Date)
	assert.Equal(t, "2024-02-29", out[28].Date)

	_, err = svc.MonthStatuses(authedCtx(t, "emp-1"), "emp-1", 2024, 13)
	assert.Error(t, err)
}
