package backfill

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// failOnceTx fails the first transaction it sees, then passes through.
type failOnceTx struct {
	failed bool
}

func (f *failOnceTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !f.failed {
		f.failed = true
		return fmt.Errorf("connection reset")
	}
	return fn(ctx)
}

// failAtTx fails the nth transaction it sees, passing through otherwise.
type failAtTx struct {
	n    int
	seen int
}

func (f *failAtTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.seen++
	if f.seen == f.n {
		return fmt.Errorf("connection reset")
	}
	return fn(ctx)
}

type memRepo struct {
	mu   sync.Mutex
	logs map[string]*attendance.Log
}

func newMemRepo() *memRepo {
	return &memRepo{logs: make(map[string]*attendance.Log)}
}

func (m *memRepo) put(log attendance.Log) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := log
	m.logs[log.ID] = &cp
}

func (m *memRepo) get(t *testing.T, id string) attendance.Log {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.logs[id]
	require.True(t, ok, "log %s not found", id)
	return *log
}

func (m *memRepo) Create(_ context.Context, log attendance.Log) (attendance.Log, error) {
	m.put(log)
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
	cp := log
	cp.Sessions, cp.Breaks = stored.Sessions, stored.Breaks
	m.logs[log.ID] = &cp
	return nil
}

func (m *memRepo) ListForRange(context.Context, string, time.Time, time.Time) ([]attendance.Log, error) {
	return nil, nil
}

func (m *memRepo) AddSession(context.Context, string, attendance.Session) (attendance.Session, error) {
	return attendance.Session{}, nil
}

func (m *memRepo) CloseSession(context.Context, string, time.Time) error { return nil }

func (m *memRepo) AddBreak(context.Context, string, attendance.Break) (attendance.Break, error) {
	return attendance.Break{}, nil
}

func (m *memRepo) CloseBreak(context.Context, string, time.Time) error { return nil }

func (m *memRepo) ListStaleOpen(context.Context, time.Time) ([]attendance.Log, error) {
	return nil, nil
}

func (m *memRepo) ListCorrectionCandidates(_ context.Context, from, to time.Time, source string, afterID string, limit int) ([]attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Log
	for _, log := range m.logs {
		if log.Date.Before(from) || log.Date.After(to) {
			continue
		}
		if log.CorrectionSource != nil && *log.CorrectionSource == source {
			continue
		}
		if log.ID <= afterID {
			continue
		}
		out = append(out, *log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ListCorrected(_ context.Context, source, version string, afterID string, limit int) ([]attendance.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Log
	for _, log := range m.logs {
		if log.CorrectionSource == nil || *log.CorrectionSource != source {
			continue
		}
		if log.CorrectionVersion == nil || *log.CorrectionVersion != version {
			continue
		}
		if log.ID <= afterID {
			continue
		}
		out = append(out, *log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memHolidays struct {
	holidays []holiday.Holiday
}

func (m *memHolidays) GetByDate(_ context.Context, date time.Time) (*holiday.Holiday, error) {
	for i := range m.holidays {
		if m.holidays[i].Date.Equal(date) {
			cp := m.holidays[i]
			return &cp, nil
		}
	}
	return nil, nil
}

type memLeaves struct {
	reqs []leave.Request
}

func (m *memLeaves) ListApprovedInRange(_ context.Context, employeeID string, from, to time.Time) ([]leave.Request, error) {
	var out []leave.Request
	for _, r := range m.reqs {
		if r.EmployeeID == employeeID && r.Status == leave.StatusApproved &&
			!r.EndDate.Before(from) && !r.StartDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fixedPolicy struct{}

func (fixedPolicy) Get(context.Context) (policy.Policy, error) {
	return policy.Default(), nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// workedLog builds a clocked-out log with one session of the given length,
// stored with status Present as the pre-rule rows were.
func workedLog(id, employeeID string, d time.Time, minutes int) attendance.Log {
	in := d.Add(9 * time.Hour)
	out := in.Add(time.Duration(minutes) * time.Minute)
	return attendance.Log{
		ID:         id,
		EmployeeID: employeeID,
		Date:       d,
		ClockIn:    &in,
		ClockOut:   &out,
		Sessions:   []attendance.Session{{ID: id + "-s1", StartAt: in, EndAt: &out}},
		Status:     attendance.StatusPresent,
	}
}

type fixture struct {
	job  *Job
	repo *memRepo
}

func newFixture(t *testing.T, txr TxRunner) *fixture {
	t.Helper()
	repo := newMemRepo()
	resolver := resolution.NewService(repo, &memHolidays{
		holidays: []holiday.Holiday{{ID: "h1", Date: date(2024, 3, 7), Name: "Founders Day"}},
	}, &memLeaves{
		reqs: []leave.Request{{
			ID:         "lr1",
			EmployeeID: "emp-f",
			StartDate:  date(2024, 3, 6),
			EndDate:    date(2024, 3, 6),
			Status:     leave.StatusApproved,
			Subtype:    attendance.SubtypeOrdinary,
			Type:       leave.TypeFullDay,
		}},
	}, fixedPolicy{}, time.UTC)
	return &fixture{job: NewJob(repo, resolver, txr), repo: repo}
}

func (f *fixture) seedMixedWeek() {
	// Monday 2024-03-04 through Sunday 2024-03-03.
	short := workedLog("log-a", "emp-a", date(2024, 3, 4), 400)
	f.repo.put(short)

	f.repo.put(workedLog("log-b", "emp-b", date(2024, 3, 4), 540))

	overridden := workedLog("log-c", "emp-c", date(2024, 3, 4), 400)
	late := attendance.StatusLate
	overridden.AdminOverride = true
	overridden.OverrideStatus = &late
	f.repo.put(overridden)

	f.repo.put(attendance.Log{
		ID:         "log-d",
		EmployeeID: "emp-d",
		Date:       date(2024, 3, 4),
		Status:     attendance.StatusAbsent,
	})

	already := workedLog("log-e", "emp-e", date(2024, 3, 4), 400)
	already.Status = attendance.StatusHalfDay
	already.IsHalfDay = true
	already.HalfDayReasonCode = attendance.ReasonInsufficientHours
	f.repo.put(already)

	f.repo.put(workedLog("log-f", "emp-f", date(2024, 3, 6), 400))
	f.repo.put(workedLog("log-g", "emp-g", date(2024, 3, 7), 400))
	f.repo.put(workedLog("log-h", "emp-h", date(2024, 3, 3), 400))
}

func rangeOpts(execute bool) Options {
	return Options{
		From:    date(2024, 3, 1),
		To:      date(2024, 3, 10),
		Execute: execute,
		Reason:  "half-day reclassification",
	}
}

func TestRun_DryRunCategorizesWithoutWriting(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	summary, err := f.job.Run(context.Background(), rangeOpts(false))
	require.NoError(t, err)

	assert.Equal(t, 8, summary.Scanned)
	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.SufficientHours)
	assert.Equal(t, 1, summary.AdminOverridden)
	assert.Equal(t, 1, summary.NoSessions)
	assert.Equal(t, 1, summary.AlreadyHalfDay)
	assert.Equal(t, 1, summary.Leave)
	assert.Equal(t, 2, summary.HolidayWeeklyOff)
	assert.Equal(t, 0, summary.Errored)
	assert.Equal(t, 0, summary.Updated)

	// Dry run leaves the rows untouched.
	log := f.repo.get(t, "log-a")
	assert.Equal(t, attendance.StatusPresent, log.Status)
	assert.Nil(t, log.CorrectionSource)
}

func TestRun_DryRunIsRepeatable(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	first, err := f.job.Run(context.Background(), rangeOpts(false))
	require.NoError(t, err)
	second, err := f.job.Run(context.Background(), rangeOpts(false))
	require.NoError(t, err)

	second.RunID = first.RunID
	assert.Equal(t, first, second)
}

func TestRun_LiveRunWritesProvenanceAndPriorValues(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	summary, err := f.job.Run(context.Background(), rangeOpts(true))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.Updated)

	log := f.repo.get(t, "log-a")
	assert.Equal(t, attendance.StatusHalfDay, log.Status)
	assert.True(t, log.IsHalfDay)
	assert.Equal(t, attendance.ReasonInsufficientHours, log.HalfDayReasonCode)
	assert.Equal(t, 400, log.TotalWorkedMinutes)

	require.NotNil(t, log.CorrectionSource)
	assert.Equal(t, SourceID, *log.CorrectionSource)
	require.NotNil(t, log.CorrectionVersion)
	assert.Equal(t, Version, *log.CorrectionVersion)
	require.NotNil(t, log.CorrectionReason)
	assert.Equal(t, "half-day reclassification", *log.CorrectionReason)
	assert.NotNil(t, log.CorrectedAt)

	require.NotNil(t, log.PrevStatus)
	assert.Equal(t, attendance.StatusPresent, *log.PrevStatus)
	require.NotNil(t, log.PrevIsHalfDay)
	assert.False(t, *log.PrevIsHalfDay)
}

func TestRun_LiveRunIsIdempotent(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	_, err := f.job.Run(context.Background(), rangeOpts(true))
	require.NoError(t, err)

	second, err := f.job.Run(context.Background(), rangeOpts(true))
	require.NoError(t, err)
	// The corrected row no longer appears as a candidate.
	assert.Equal(t, 7, second.Scanned)
	assert.Equal(t, 0, second.Eligible)
	assert.Equal(t, 0, second.Updated)
}

func TestRun_SmallBatchesScanEverything(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	opts := rangeOpts(true)
	opts.BatchSize = 2
	summary, err := f.job.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Scanned)
	assert.Equal(t, 1, summary.Updated)
}

func TestRun_BatchFailureReportsResumePoint(t *testing.T) {
	txr := &failOnceTx{}
	f := newFixture(t, txr)
	f.seedMixedWeek()

	summary, err := f.job.Run(context.Background(), rangeOpts(true))
	require.Error(t, err)
	assert.Equal(t, 0, summary.Updated)
	// The failed batch rolled back, so the resume point is where that batch
	// started: here the very beginning of the range.
	assert.Equal(t, "", summary.ResumeAfterID)

	log := f.repo.get(t, "log-a")
	assert.Nil(t, log.CorrectionSource)

	// Resuming from the reported point picks the failed batch back up.
	opts := rangeOpts(true)
	opts.ResumeAfterID = summary.ResumeAfterID
	resumed, err := f.job.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Updated)
	assert.NotNil(t, f.repo.get(t, "log-a").CorrectionSource)
}

func TestRun_ResumeAfterMidRunFailureCorrectsFailedBatch(t *testing.T) {
	txr := &failAtTx{n: 2}
	f := newFixture(t, txr)
	f.seedMixedWeek()
	// A second eligible log in a later batch, so the failure hits mid-run.
	f.repo.put(workedLog("log-i", "emp-i", date(2024, 3, 5), 400))

	opts := rangeOpts(true)
	opts.BatchSize = 2
	summary, err := f.job.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, "log-h", summary.ResumeAfterID)
	assert.Nil(t, f.repo.get(t, "log-i").CorrectionSource)

	opts.ResumeAfterID = summary.ResumeAfterID
	resumed, err := f.job.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Scanned)
	assert.Equal(t, 1, resumed.Updated)
	assert.NotNil(t, f.repo.get(t, "log-i").CorrectionSource)
}

func TestRun_HalfDayWithForeignReasonStaysUntouched(t *testing.T) {
	f := newFixture(t, passTx{})
	short := workedLog("log-x", "emp-x", date(2024, 3, 4), 400)
	short.Status = attendance.StatusHalfDay
	short.IsHalfDay = true
	short.HalfDayReasonCode = attendance.ReasonNone
	f.repo.put(short)

	summary, err := f.job.Run(context.Background(), rangeOpts(true))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlreadyHalfDay)
	assert.Equal(t, 0, summary.Eligible)
	assert.Equal(t, 0, summary.Updated)

	log := f.repo.get(t, "log-x")
	assert.Nil(t, log.CorrectionSource)
	assert.Equal(t, attendance.ReasonNone, log.HalfDayReasonCode)
}

func TestRun_RequiresDateRange(t *testing.T) {
	f := newFixture(t, passTx{})

	_, err := f.job.Run(context.Background(), Options{Execute: true})
	assert.Error(t, err)

	_, err = f.job.Run(context.Background(), Options{
		From: date(2024, 3, 10),
		To:   date(2024, 3, 1),
	})
	assert.Error(t, err)
}

func TestRollback_RestoresPriorValues(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	_, err := f.job.Run(context.Background(), rangeOpts(true))
	require.NoError(t, err)

	summary, err := f.job.Rollback(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Updated)

	log := f.repo.get(t, "log-a")
	assert.Equal(t, attendance.StatusPresent, log.Status)
	assert.False(t, log.IsHalfDay)
	assert.Equal(t, attendance.ReasonNone, log.HalfDayReasonCode)
	assert.Nil(t, log.CorrectionSource)
	assert.Nil(t, log.CorrectedAt)
	assert.Nil(t, log.PrevStatus)
}

func TestRollback_MakesRowsEligibleAgain(t *testing.T) {
	f := newFixture(t, passTx{})
	f.seedMixedWeek()

	_, err := f.job.Run(context.Background(), rangeOpts(true))
	require.NoError(t, err)
	_, err = f.job.Rollback(context.Background(), Options{})
	require.NoError(t, err)

	summary, err := f.job.Run(context.Background(), rangeOpts(false))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Eligible)
}
