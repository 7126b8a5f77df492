package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const logColumns = `
	id, employee_id, date, clock_in, clock_out,
	status, is_half_day, half_day_reason_code, half_day_reason_text,
	late_minutes, total_worked_minutes, total_payable_minutes,
	admin_override, override_status,
	correction_source, correction_version, correction_reason, corrected_at,
	prev_status, prev_is_half_day, prev_half_day_reason_code,
	created_at, updated_at`

func scanLog(row pgx.Row) (attendance.Log, error) {
	var (
		log            attendance.Log
		status         int
		reasonCode     *string
		overrideStatus *int
		prevStatus     *int
		prevReasonCode *string
	)
	err := row.Scan(
		&log.ID, &log.EmployeeID, &log.Date, &log.ClockIn, &log.ClockOut,
		&status, &log.IsHalfDay, &reasonCode, &log.HalfDayReasonText,
		&log.LateMinutes, &log.TotalWorkedMinutes, &log.TotalPayableMinutes,
		&log.AdminOverride, &overrideStatus,
		&log.CorrectionSource, &log.CorrectionVersion, &log.CorrectionReason, &log.CorrectedAt,
		&prevStatus, &log.PrevIsHalfDay, &prevReasonCode,
		&log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		return attendance.Log{}, err
	}

	log.Status = attendance.Status(status)
	if reasonCode != nil {
		log.HalfDayReasonCode = attendance.HalfDayReason(*reasonCode)
	}
	if overrideStatus != nil {
		st := attendance.Status(*overrideStatus)
		log.OverrideStatus = &st
	}
	if prevStatus != nil {
		st := attendance.Status(*prevStatus)
		log.PrevStatus = &st
	}
	if prevReasonCode != nil {
		code := attendance.HalfDayReason(*prevReasonCode)
		log.PrevHalfDayReasonCode = &code
	}
	return log, nil
}

func nullableReason(code attendance.HalfDayReason) *string {
	if code == attendance.ReasonNone {
		return nil
	}
	s := string(code)
	return &s
}

func nullableStatus(st *attendance.Status) *int {
	if st == nil {
		return nil
	}
	v := int(*st)
	return &v
}

// Create implements attendance.Repository.
func (a *attendanceRepository) Create(ctx context.Context, log attendance.Log) (attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	query := `
		INSERT INTO attendance_logs (
			id, employee_id, date, clock_in, clock_out,
			status, is_half_day, half_day_reason_code, half_day_reason_text,
			late_minutes, total_worked_minutes, total_payable_minutes,
			admin_override, override_status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		log.ID,
		log.EmployeeID,
		log.Date,
		log.ClockIn,
		log.ClockOut,
		int(log.Status),
		log.IsHalfDay,
		nullableReason(log.HalfDayReasonCode),
		log.HalfDayReasonText,
		log.LateMinutes,
		log.TotalWorkedMinutes,
		log.TotalPayableMinutes,
		log.AdminOverride,
		nullableStatus(log.OverrideStatus),
	).Scan(&log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return attendance.Log{}, fmt.Errorf("failed to create attendance log: %w", err)
	}

	return log, nil
}

// GetByID implements attendance.Repository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + logColumns + ` FROM attendance_logs WHERE id = $1`

	log, err := scanLog(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Log{}, attendance.ErrLogNotFound
		}
		return attendance.Log{}, fmt.Errorf("failed to get attendance log: %w", err)
	}

	logs := []attendance.Log{log}
	if err := a.loadSpans(ctx, logs); err != nil {
		return attendance.Log{}, err
	}
	return logs[0], nil
}

// GetByEmployeeAndDate implements attendance.Repository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + logColumns + ` FROM attendance_logs WHERE employee_id = $1 AND date = $2`

	log, err := scanLog(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance log by employee and date: %w", err)
	}

	logs := []attendance.Log{log}
	if err := a.loadSpans(ctx, logs); err != nil {
		return nil, err
	}
	return &logs[0], nil
}

// Update implements attendance.Repository. Sessions and breaks have their own
// mutation paths; this rewrites the scalar columns only.
func (a *attendanceRepository) Update(ctx context.Context, log attendance.Log) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_logs SET
			clock_in = $2,
			clock_out = $3,
			status = $4,
			is_half_day = $5,
			half_day_reason_code = $6,
			half_day_reason_text = $7,
			late_minutes = $8,
			total_worked_minutes = $9,
			total_payable_minutes = $10,
			admin_override = $11,
			override_status = $12,
			correction_source = $13,
			correction_version = $14,
			correction_reason = $15,
			corrected_at = $16,
			prev_status = $17,
			prev_is_half_day = $18,
			prev_half_day_reason_code = $19,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		log.ID,
		log.ClockIn,
		log.ClockOut,
		int(log.Status),
		log.IsHalfDay,
		nullableReason(log.HalfDayReasonCode),
		log.HalfDayReasonText,
		log.LateMinutes,
		log.TotalWorkedMinutes,
		log.TotalPayableMinutes,
		log.AdminOverride,
		nullableStatus(log.OverrideStatus),
		log.CorrectionSource,
		log.CorrectionVersion,
		log.CorrectionReason,
		log.CorrectedAt,
		nullableStatus(log.PrevStatus),
		log.PrevIsHalfDay,
		prevReasonParam(log.PrevHalfDayReasonCode),
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrLogNotFound
	}
	return nil
}

func prevReasonParam(code *attendance.HalfDayReason) *string {
	if code == nil {
		return nil
	}
	s := string(*code)
	return &s
}

// ListForRange implements attendance.Repository.
func (a *attendanceRepository) ListForRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + logColumns + `
		FROM attendance_logs
		WHERE employee_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	defer rows.Close()

	logs, err := collectLogs(rows)
	if err != nil {
		return nil, err
	}
	if err := a.loadSpans(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// AddSession implements attendance.Repository.
func (a *attendanceRepository) AddSession(ctx context.Context, logID string, s attendance.Session) (attendance.Session, error) {
	q := GetQuerier(ctx, a.db)

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO attendance_sessions (id, log_id, start_at, end_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := q.Exec(ctx, query, s.ID, logID, s.StartAt, s.EndAt); err != nil {
		return attendance.Session{}, fmt.Errorf("failed to add session: %w", err)
	}
	return s, nil
}

// CloseSession implements attendance.Repository.
func (a *attendanceRepository) CloseSession(ctx context.Context, sessionID string, endAt time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `UPDATE attendance_sessions SET end_at = $2 WHERE id = $1 AND end_at IS NULL`

	tag, err := q.Exec(ctx, query, sessionID, endAt)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNotClockedIn
	}
	return nil
}

// AddBreak implements attendance.Repository.
func (a *attendanceRepository) AddBreak(ctx context.Context, logID string, b attendance.Break) (attendance.Break, error) {
	q := GetQuerier(ctx, a.db)

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `
		INSERT INTO attendance_breaks (id, log_id, start_at, end_at, kind)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := q.Exec(ctx, query, b.ID, logID, b.StartAt, b.EndAt, string(b.Kind)); err != nil {
		return attendance.Break{}, fmt.Errorf("failed to add break: %w", err)
	}
	return b, nil
}

// CloseBreak implements attendance.Repository.
func (a *attendanceRepository) CloseBreak(ctx context.Context, breakID string, endAt time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `UPDATE attendance_breaks SET end_at = $2 WHERE id = $1 AND end_at IS NULL`

	tag, err := q.Exec(ctx, query, breakID, endAt)
	if err != nil {
		return fmt.Errorf("failed to close break: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNoOpenBreak
	}
	return nil
}

// ListStaleOpen implements attendance.Repository.
func (a *attendanceRepository) ListStaleOpen(ctx context.Context, before time.Time) ([]attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + logColumns + `
		FROM attendance_logs l
		WHERE l.date < $1
		  AND EXISTS (
			SELECT 1 FROM attendance_sessions s
			WHERE s.log_id = l.id AND s.end_at IS NULL
		  )
		ORDER BY l.date`

	rows, err := q.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale open logs: %w", err)
	}
	defer rows.Close()

	logs, err := collectLogs(rows)
	if err != nil {
		return nil, err
	}
	if err := a.loadSpans(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListCorrectionCandidates implements attendance.Repository.
func (a *attendanceRepository) ListCorrectionCandidates(ctx context.Context, from, to time.Time, source string, afterID string, limit int) ([]attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + logColumns + `
		FROM attendance_logs
		WHERE date >= $1 AND date <= $2
		  AND correction_source IS DISTINCT FROM $3
		  AND id > $4
		ORDER BY id
		LIMIT $5`

	rows, err := q.Query(ctx, query, from, to, source, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction candidates: %w", err)
	}
	defer rows.Close()

	logs, err := collectLogs(rows)
	if err != nil {
		return nil, err
	}
	if err := a.loadSpans(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListCorrected implements attendance.Repository.
func (a *attendanceRepository) ListCorrected(ctx context.Context, source, version string, afterID string, limit int) ([]attendance.Log, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + logColumns + `
		FROM attendance_logs
		WHERE correction_source = $1 AND correction_version = $2 AND id > $3
		ORDER BY id
		LIMIT $4`

	rows, err := q.Query(ctx, query, source, version, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrected logs: %w", err)
	}
	defer rows.Close()

	logs, err := collectLogs(rows)
	if err != nil {
		return nil, err
	}
	if err := a.loadSpans(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func collectLogs(rows pgx.Rows) ([]attendance.Log, error) {
	var logs []attendance.Log
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance logs: %w", err)
	}
	return logs, nil
}

// loadSpans attaches sessions and breaks to the given logs in place.
func (a *attendanceRepository) loadSpans(ctx context.Context, logs []attendance.Log) error {
	if len(logs) == 0 {
		return nil
	}

	q := GetQuerier(ctx, a.db)

	ids := make([]string, 0, len(logs))
	byID := make(map[string]*attendance.Log, len(logs))
	for i := range logs {
		ids = append(ids, logs[i].ID)
		byID[logs[i].ID] = &logs[i]
	}

	sessionRows, err := q.Query(ctx, `
		SELECT id, log_id, start_at, end_at
		FROM attendance_sessions
		WHERE log_id = ANY($1)
		ORDER BY start_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	defer sessionRows.Close()

	for sessionRows.Next() {
		var (
			s     attendance.Session
			logID string
		)
		if err := sessionRows.Scan(&s.ID, &logID, &s.StartAt, &s.EndAt); err != nil {
			return fmt.Errorf("failed to scan session: %w", err)
		}
		if log, ok := byID[logID]; ok {
			log.Sessions = append(log.Sessions, s)
		}
	}
	if err := sessionRows.Err(); err != nil {
		return fmt.Errorf("failed to read sessions: %w", err)
	}

	breakRows, err := q.Query(ctx, `
		SELECT id, log_id, start_at, end_at, kind
		FROM attendance_breaks
		WHERE log_id = ANY($1)
		ORDER BY start_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to load breaks: %w", err)
	}
	defer breakRows.Close()

	for breakRows.Next() {
		var (
			b     attendance.Break
			logID string
			kind  string
		)
		if err := breakRows.Scan(&b.ID, &logID, &b.StartAt, &b.EndAt, &kind); err != nil {
			return fmt.Errorf("failed to scan break: %w", err)
		}
		b.Kind = attendance.BreakKind(kind)
		if log, ok := byID[logID]; ok {
			log.Breaks = append(log.Breaks, b)
		}
	}
	if err := breakRows.Err(); err != nil {
		return fmt.Errorf("failed to read breaks: %w", err)
	}

	return nil
}
