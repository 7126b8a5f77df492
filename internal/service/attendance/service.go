package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

// TxRunner executes fn inside a database transaction. Repository calls made
// with the context fn receives join that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AttendanceServiceImpl struct {
	txr      TxRunner
	logs     attendance.Repository
	resolver *resolution.Service

	now func() time.Time
}

func NewAttendanceService(
	txr TxRunner,
	logs attendance.Repository,
	resolver *resolution.Service,
) attendance.Service {
	return &AttendanceServiceImpl{
		txr:      txr,
		logs:     logs,
		resolver: resolver,
		now:      time.Now,
	}
}

func employeeIDFromClaims(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", fmt.Errorf("employee_id claim is missing or invalid")
	}
	return employeeID, nil
}

// ClockIn implements attendance.Service.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context) (attendance.LogResponse, error) {
	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.LogResponse{}, err
	}

	now := a.now().In(a.resolver.Location())
	date := a.resolver.Normalize(now)

	var result attendance.Log
	err = a.txr.RunInTx(ctx, func(ctx context.Context) error {
		log, err := a.logs.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return err
		}

		if log == nil {
			created, err := a.logs.Create(ctx, attendance.Log{
				EmployeeID: employeeID,
				Date:       date,
				ClockIn:    &now,
			})
			if err != nil {
				return err
			}
			log = &created
		} else {
			if log.OpenSession() != nil {
				return attendance.ErrAlreadyClockedIn
			}
			// Re-entry after a clock-out reopens the day.
			log.ClockOut = nil
			if log.ClockIn == nil {
				log.ClockIn = &now
			}
			if err := a.logs.Update(ctx, *log); err != nil {
				return err
			}
		}

		session, err := a.logs.AddSession(ctx, log.ID, attendance.Session{StartAt: now})
		if err != nil {
			return err
		}
		log.Sessions = append(log.Sessions, session)
		result = *log
		return nil
	})
	if err != nil {
		return attendance.LogResponse{}, err
	}

	// Invalidate before acknowledging, so the next read resolves fresh.
	a.resolver.InvalidateStatus(employeeID, date)
	return attendance.NewLogResponse(result), nil
}

// ClockOut implements attendance.Service.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context) (attendance.LogResponse, error) {
	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.LogResponse{}, err
	}

	now := a.now().In(a.resolver.Location())
	date := a.resolver.Normalize(now)

	var result attendance.Log
	err = a.txr.RunInTx(ctx, func(ctx context.Context) error {
		log, err := a.logs.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if log == nil {
			return attendance.ErrNotClockedIn
		}

		open := log.OpenSession()
		if open == nil {
			return attendance.ErrNotClockedIn
		}

		// A clock-out also ends an unfinished break.
		if br := log.OpenBreak(); br != nil {
			if err := a.logs.CloseBreak(ctx, br.ID, now); err != nil {
				return err
			}
			br.EndAt = &now
		}

		if err := a.logs.CloseSession(ctx, open.ID, now); err != nil {
			return err
		}
		open.EndAt = &now

		log.ClockOut = &now
		if err := a.logs.Update(ctx, *log); err != nil {
			return err
		}
		result = *log
		return nil
	})
	if err != nil {
		return attendance.LogResponse{}, err
	}

	a.resolver.InvalidateStatus(employeeID, date)
	return attendance.NewLogResponse(result), nil
}

// StartBreak implements attendance.Service.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.StartBreakRequest) (attendance.LogResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LogResponse{}, err
	}

	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.LogResponse{}, err
	}

	now := a.now().In(a.resolver.Location())
	date := a.resolver.Normalize(now)

	var result attendance.Log
	err = a.txr.RunInTx(ctx, func(ctx context.Context) error {
		log, err := a.logs.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if log == nil || log.OpenSession() == nil {
			return attendance.ErrBreakOutsideWork
		}
		if log.OpenBreak() != nil {
			return attendance.ErrBreakAlreadyOpen
		}

		br, err := a.logs.AddBreak(ctx, log.ID, attendance.Break{
			StartAt: now,
			Kind:    attendance.BreakKind(req.Kind),
		})
		if err != nil {
			return err
		}
		log.Breaks = append(log.Breaks, br)
		result = *log
		return nil
	})
	if err != nil {
		return attendance.LogResponse{}, err
	}

	a.resolver.InvalidateStatus(employeeID, date)
	return attendance.NewLogResponse(result), nil
}

// EndBreak implements attendance.Service.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.LogResponse, error) {
	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.LogResponse{}, err
	}

	now := a.now().In(a.resolver.Location())
	date := a.resolver.Normalize(now)

	var result attendance.Log
	err = a.txr.RunInTx(ctx, func(ctx context.Context) error {
		log, err := a.logs.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if log == nil {
			return attendance.ErrNoOpenBreak
		}

		br := log.OpenBreak()
		if br == nil {
			return attendance.ErrNoOpenBreak
		}

		if err := a.logs.CloseBreak(ctx, br.ID, now); err != nil {
			return err
		}
		br.EndAt = &now
		result = *log
		return nil
	})
	if err != nil {
		return attendance.LogResponse{}, err
	}

	a.resolver.InvalidateStatus(employeeID, date)
	return attendance.NewLogResponse(result), nil
}

// Override implements attendance.Service. The pinned status survives until an
// admin clears it; resolution reports it with Overridden set.
func (a *AttendanceServiceImpl) Override(ctx context.Context, req attendance.OverrideRequest) (attendance.DayStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayStatusResponse{}, err
	}

	date, err := a.parseDate(req.Date)
	if err != nil {
		return attendance.DayStatusResponse{}, err
	}

	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		return attendance.DayStatusResponse{}, attendance.ErrInvalidOverrideStatus
	}

	err = a.txr.RunInTx(ctx, func(ctx context.Context) error {
		log, err := a.logs.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
		if err != nil {
			return err
		}
		if log == nil {
			created, err := a.logs.Create(ctx, attendance.Log{
				EmployeeID: req.EmployeeID,
				Date:       date,
			})
			if err != nil {
				return err
			}
			log = &created
		}

		log.AdminOverride = true
		log.OverrideStatus = &status
		log.HalfDayReasonText = &req.Reason
		return a.logs.Update(ctx, *log)
	})
	if err != nil {
		return attendance.DayStatusResponse{}, err
	}

	a.resolver.InvalidateStatus(req.EmployeeID, date)

	rs, err := a.resolver.StatusFor(ctx, req.EmployeeID, date)
	if err != nil {
		return attendance.DayStatusResponse{}, err
	}
	return attendance.NewDayStatusResponse(req.EmployeeID, date, rs), nil
}

// DayStatus implements attendance.Service.
func (a *AttendanceServiceImpl) DayStatus(ctx context.Context, employeeID, dateStr string) (attendance.DayStatusResponse, error) {
	date, err := a.parseDate(dateStr)
	if err != nil {
		return attendance.DayStatusResponse{}, err
	}

	rs, err := a.resolver.StatusFor(ctx, employeeID, date)
	if err != nil {
		return attendance.DayStatusResponse{}, err
	}
	return attendance.NewDayStatusResponse(employeeID, date, rs), nil
}

// MonthStatuses implements attendance.Service.
func (a *AttendanceServiceImpl) MonthStatuses(ctx context.Context, employeeID string, year, month int) ([]attendance.DayStatusResponse, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}

	loc := a.resolver.Location()
	day := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)

	var out []attendance.DayStatusResponse
	for day.Month() == time.Month(month) {
		rs, err := a.resolver.StatusFor(ctx, employeeID, day)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", day.Format("2006-01-02"), err)
		}
		out = append(out, attendance.NewDayStatusResponse(employeeID, day, rs))
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

func (a *AttendanceServiceImpl) parseDate(s string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", s, a.resolver.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return date, nil
}
