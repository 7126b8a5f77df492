package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

// AttendanceJobs closes work sessions that were left open past their day.
// Status resolution already measures such days to midnight; the job makes the
// stored rows agree and keeps the open-session lookup clean.
type AttendanceJobs struct {
	logs     attendance.Repository
	resolver *resolution.Service
}

func NewAttendanceJobs(logs attendance.Repository, resolver *resolution.Service) *AttendanceJobs {
	return &AttendanceJobs{logs: logs, resolver: resolver}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_sessions", 1*time.Hour, j.AutoCloseStaleSessions)
}

// AutoCloseStaleSessions closes sessions and breaks still open on days before
// today, pinning their end to the midnight that ended the day.
func (j *AttendanceJobs) AutoCloseStaleSessions(ctx context.Context) error {
	today := j.resolver.Normalize(time.Now())

	stale, err := j.logs.ListStaleOpen(ctx, today)
	if err != nil {
		return fmt.Errorf("list stale open logs: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	closed := 0
	for _, log := range stale {
		dayEnd := log.Date.AddDate(0, 0, 1)

		if br := log.OpenBreak(); br != nil {
			if err := j.logs.CloseBreak(ctx, br.ID, dayEnd); err != nil {
				slog.Error("failed to auto-close break",
					"log_id", log.ID, "break_id", br.ID, "error", err)
				continue
			}
		}

		open := log.OpenSession()
		if open == nil {
			continue
		}
		if err := j.logs.CloseSession(ctx, open.ID, dayEnd); err != nil {
			slog.Error("failed to auto-close session",
				"log_id", log.ID, "session_id", open.ID, "error", err)
			continue
		}

		log.ClockOut = &dayEnd
		if err := j.logs.Update(ctx, log); err != nil {
			slog.Error("failed to update auto-closed log",
				"log_id", log.ID, "error", err)
			continue
		}

		j.resolver.InvalidateStatus(log.EmployeeID, log.Date)
		closed++
	}

	slog.Info("auto-closed stale sessions", "count", closed, "stale", len(stale))
	return nil
}
