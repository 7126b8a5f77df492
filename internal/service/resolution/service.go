package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
	"github.com/veritas-hq/attendance-engine/internal/pkg/cache"
)

const (
	policyTTL      = time.Hour
	statusTTL      = 60 * time.Second
	leaveWindowTTL = 5 * time.Minute

	// leaveWindowDays is the width of one LeaveWindowCache bucket.
	leaveWindowDays = 14

	policyKey = "default"
)

// The core consumes its collaborators through narrow read interfaces, not
// the full repositories: resolution never writes.

type LogReader interface {
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Log, error)
}

type HolidayReader interface {
	GetByDate(ctx context.Context, date time.Time) (*holiday.Holiday, error)
}

type LeaveReader interface {
	ListApprovedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Request, error)
}

type PolicyReader interface {
	Get(ctx context.Context) (policy.Policy, error)
}

// StatusKey addresses one resolved employee-day in the StatusCache.
type StatusKey struct {
	EmployeeID string
	Date       string // YYYY-MM-DD
}

// LeaveWindowKey addresses one employee's approved leaves in one date-range
// bucket.
type LeaveWindowKey struct {
	EmployeeID string
	Bucket     int64
}

// Service fronts the pure resolver with the three caches. It owns the caches
// as explicit objects; mutating services call the Invalidate methods after
// their write commits and before acknowledging the mutation.
type Service struct {
	logs     LogReader
	holidays HolidayReader
	leaves   LeaveReader
	policies PolicyReader
	resolver *Resolver
	loc      *time.Location

	policyCache *cache.Store[string, policy.Policy]
	statusCache *cache.Store[StatusKey, attendance.ResolvedStatus]
	leaveCache  *cache.Store[LeaveWindowKey, []leave.Request]

	// now is swapped in tests
	now func() time.Time
}

func NewService(
	logs LogReader,
	holidays HolidayReader,
	leaves LeaveReader,
	policies PolicyReader,
	loc *time.Location,
) *Service {
	return &Service{
		logs:     logs,
		holidays: holidays,
		leaves:   leaves,
		policies: policies,
		resolver: NewResolver(),
		loc:      loc,
		policyCache: cache.New[string, policy.Policy]("policy", policyTTL,
			func(k string) string { return k }),
		statusCache: cache.New[StatusKey, attendance.ResolvedStatus]("status", statusTTL,
			func(k StatusKey) string { return k.EmployeeID + "|" + k.Date }),
		leaveCache: cache.New[LeaveWindowKey, []leave.Request]("leave_window", leaveWindowTTL,
			func(k LeaveWindowKey) string { return fmt.Sprintf("%s|%d", k.EmployeeID, k.Bucket) }),
		now: time.Now,
	}
}

// Normalize truncates an instant to midnight in the organization zone.
func (s *Service) Normalize(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// Location returns the organization zone the service normalizes dates in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// StatusFor resolves (and memoizes) the status of one employee-day.
func (s *Service) StatusFor(ctx context.Context, employeeID string, date time.Time) (attendance.ResolvedStatus, error) {
	date = s.Normalize(date)
	key := StatusKey{EmployeeID: employeeID, Date: date.Format("2006-01-02")}
	return s.statusCache.GetOrCompute(ctx, key, func(ctx context.Context) (attendance.ResolvedStatus, error) {
		log, err := s.logs.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return attendance.ResolvedStatus{}, fmt.Errorf("load attendance log: %w", err)
		}
		return s.resolveLog(ctx, employeeID, date, log)
	})
}

// ResolveLog resolves a log the caller already holds, bypassing the
// StatusCache. The backfill job uses this so its classification never reads a
// memoized value.
func (s *Service) ResolveLog(ctx context.Context, log *attendance.Log) (attendance.ResolvedStatus, error) {
	return s.resolveLog(ctx, log.EmployeeID, s.Normalize(log.Date), log)
}

func (s *Service) resolveLog(ctx context.Context, employeeID string, date time.Time, log *attendance.Log) (attendance.ResolvedStatus, error) {
	pol, err := s.Policy(ctx)
	if err != nil {
		return attendance.ResolvedStatus{}, err
	}

	h, err := s.holidayFor(ctx, date)
	if err != nil {
		return attendance.ResolvedStatus{}, err
	}

	lv, err := s.leaveFor(ctx, employeeID, date)
	if err != nil {
		return attendance.ResolvedStatus{}, err
	}

	today := s.Normalize(s.now())

	// Open sessions on the current day are measured against the current
	// instant; past days use their day end as the fixed evaluation point.
	asOf := s.now()
	if date.Before(today) {
		asOf = date.AddDate(0, 0, 1)
	}

	var totals WorkTotals
	if log != nil {
		totals = Aggregate(log.Sessions, log.Breaks, pol.ShiftStartOn(date), asOf)
	}

	rctx := Context{
		Date:    date,
		Today:   today,
		Log:     log,
		Holiday: h,
		Leave:   lv,
		Policy:  pol,
		Totals:  totals,
	}
	return s.resolver.Resolve(rctx), nil
}

// Policy returns the cached, normalized policy. A missing policy is a
// configuration warning, never an error; the documented defaults apply.
func (s *Service) Policy(ctx context.Context) (policy.Policy, error) {
	return s.policyCache.GetOrCompute(ctx, policyKey, func(ctx context.Context) (policy.Policy, error) {
		p, err := s.policies.Get(ctx)
		if err != nil {
			if errors.Is(err, policy.ErrPolicyNotFound) {
				slog.Warn("attendance policy not configured, using defaults",
					"grace_period_minutes", policy.DefaultGracePeriodMinutes)
				return policy.Default(), nil
			}
			return policy.Policy{}, fmt.Errorf("load attendance policy: %w", err)
		}
		norm, fellBack := p.Normalized()
		if fellBack {
			slog.Warn("attendance policy has missing or invalid fields, defaults applied",
				"grace_period_minutes", norm.GracePeriodMinutes)
		}
		return norm, nil
	})
}

func (s *Service) holidayFor(ctx context.Context, date time.Time) (*holiday.Holiday, error) {
	h, err := s.holidays.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load holiday: %w", err)
	}
	// Tentative holidays stay out of resolution until confirmed.
	if h != nil && h.IsTentative {
		return nil, nil
	}
	return h, nil
}

func (s *Service) leaveFor(ctx context.Context, employeeID string, date time.Time) (*leave.Request, error) {
	bucket := s.bucketFor(date)
	key := LeaveWindowKey{EmployeeID: employeeID, Bucket: bucket}
	reqs, err := s.leaveCache.GetOrCompute(ctx, key, func(ctx context.Context) ([]leave.Request, error) {
		from, to := s.bucketBounds(bucket)
		return s.leaves.ListApprovedInRange(ctx, employeeID, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("load approved leaves: %w", err)
	}
	for i := range reqs {
		if reqs[i].Covers(date) {
			return &reqs[i], nil
		}
	}
	return nil, nil
}

func (s *Service) bucketFor(date time.Time) int64 {
	return date.Unix() / (leaveWindowDays * 86400)
}

func (s *Service) bucketBounds(bucket int64) (time.Time, time.Time) {
	from := time.Unix(bucket*leaveWindowDays*86400, 0).In(s.loc)
	to := time.Unix((bucket+1)*leaveWindowDays*86400-1, 0).In(s.loc)
	return from, to
}

// InvalidateStatus drops the memoized status of one employee-day. Clock-in,
// clock-out, break and override mutations call this before acknowledging.
func (s *Service) InvalidateStatus(employeeID string, date time.Time) {
	date = s.Normalize(date)
	s.statusCache.Invalidate(StatusKey{EmployeeID: employeeID, Date: date.Format("2006-01-02")})
}

// InvalidateLeaveRange drops the leave windows intersecting [from, to] for an
// employee, plus the per-day statuses the decision may change. Leave
// approval/rejection calls this before acknowledging.
func (s *Service) InvalidateLeaveRange(employeeID string, from, to time.Time) {
	from = s.Normalize(from)
	to = s.Normalize(to)
	for b := s.bucketFor(from); b <= s.bucketFor(to); b++ {
		s.leaveCache.Invalidate(LeaveWindowKey{EmployeeID: employeeID, Bucket: b})
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		s.statusCache.Invalidate(StatusKey{EmployeeID: employeeID, Date: d.Format("2006-01-02")})
	}
}

// InvalidatePolicy drops the cached policy and every memoized status, since a
// policy change can reclassify any day. Admin policy updates call this before
// acknowledging.
func (s *Service) InvalidatePolicy() {
	s.policyCache.InvalidateAll()
	s.statusCache.InvalidateAll()
}

// InvalidateAllStatuses drops every memoized status. Holiday calendar changes
// affect a date for every employee, and the status cache cannot be enumerated
// per date, so the whole thing goes.
func (s *Service) InvalidateAllStatuses() {
	s.statusCache.InvalidateAll()
}
