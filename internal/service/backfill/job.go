package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

// Provenance stamped onto every corrected row. Candidate selection skips any
// row already carrying SourceID; Rollback restores only rows matching both
// SourceID and Version.
const (
	SourceID = "halfday-backfill"
	Version  = "v1"
)

const defaultBatchSize = 200

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options configures one run. Execute false (the default) evaluates and
// reports without writing anything.
type Options struct {
	From      time.Time
	To        time.Time
	BatchSize int
	Execute   bool
	Reason    string
	// BatchTimeout bounds each write transaction. Zero means no bound.
	BatchTimeout time.Duration
	// ResumeAfterID continues a previous run past the last processed log.
	ResumeAfterID string
}

func (o *Options) normalize() error {
	if o.From.IsZero() || o.To.IsZero() {
		return fmt.Errorf("both from and to dates are required")
	}
	if o.To.Before(o.From) {
		return fmt.Errorf("to date %s is before from date %s",
			o.To.Format("2006-01-02"), o.From.Format("2006-01-02"))
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return nil
}

// Summary is the per-category outcome of a run. Every scanned log lands in
// exactly one skip category or in Eligible.
type Summary struct {
	RunID   string `json:"run_id"`
	Scanned int    `json:"scanned"`

	Eligible         int `json:"eligible"`
	AlreadyHalfDay   int `json:"already_half_day"`
	AdminOverridden  int `json:"admin_overridden"`
	Leave            int `json:"leave"`
	HolidayWeeklyOff int `json:"holiday_weekly_off"`
	SufficientHours  int `json:"sufficient_hours"`
	NoSessions       int `json:"no_sessions"`
	Errored          int `json:"errored"`

	// Updated counts rows actually written; zero on a dry run.
	Updated int `json:"updated"`
	// ResumeAfterID is the last log ID processed, for resuming after a
	// failure.
	ResumeAfterID string `json:"resume_after_id,omitempty"`
}

// Job reclassifies historical attendance logs whose stored status predates the
// insufficient-hours half-day rule. It never touches overridden, leave,
// holiday or weekly-off days, and stamps provenance on everything it writes so
// a rollback can restore the exact prior values.
type Job struct {
	logs     attendance.Repository
	resolver *resolution.Service
	txr      TxRunner

	now func() time.Time
}

func NewJob(logs attendance.Repository, resolver *resolution.Service, txr TxRunner) *Job {
	return &Job{
		logs:     logs,
		resolver: resolver,
		txr:      txr,
		now:      time.Now,
	}
}

// Run scans [From, To], categorizes every uncorrected log, and (with Execute)
// rewrites the eligible ones batch by batch. A batch failure stops the run and
// returns the partial summary; ResumeAfterID picks up where it stopped.
func (j *Job) Run(ctx context.Context, opts Options) (Summary, error) {
	if err := opts.normalize(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		RunID:         uuid.NewString(),
		ResumeAfterID: opts.ResumeAfterID,
	}

	mode := "dry-run"
	if opts.Execute {
		mode = "live"
	}
	slog.Info("backfill run starting",
		"run_id", summary.RunID,
		"mode", mode,
		"from", opts.From.Format("2006-01-02"),
		"to", opts.To.Format("2006-01-02"),
		"batch_size", opts.BatchSize)

	afterID := opts.ResumeAfterID
	for {
		batch, err := j.logs.ListCorrectionCandidates(ctx, opts.From, opts.To, SourceID, afterID, opts.BatchSize)
		if err != nil {
			return summary, fmt.Errorf("list correction candidates: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		// Resume point if this batch's write fails: the write rolls back, so
		// the whole batch is still unprocessed.
		batchStart := afterID

		var eligible []attendance.Log
		for i := range batch {
			log := batch[i]
			summary.Scanned++
			afterID = log.ID

			category, corrected, err := j.evaluate(ctx, &log)
			if err != nil {
				summary.Errored++
				slog.Warn("backfill evaluation failed, skipping log",
					"run_id", summary.RunID, "log_id", log.ID, "error", err)
				continue
			}
			summary.bump(category)
			if category == categoryEligible {
				eligible = append(eligible, corrected)
			}
		}

		if opts.Execute && len(eligible) > 0 {
			if err := j.applyBatch(ctx, opts, eligible); err != nil {
				summary.ResumeAfterID = batchStart
				return summary, fmt.Errorf("apply batch starting after %q: %w", batchStart, err)
			}
			summary.Updated += len(eligible)
			for _, log := range eligible {
				j.resolver.InvalidateStatus(log.EmployeeID, log.Date)
			}
		}

		summary.ResumeAfterID = afterID
		if len(batch) < opts.BatchSize {
			break
		}
	}

	slog.Info("backfill run finished",
		"run_id", summary.RunID,
		"mode", mode,
		"scanned", summary.Scanned,
		"eligible", summary.Eligible,
		"updated", summary.Updated,
		"errored", summary.Errored)

	return summary, nil
}

type category int

const (
	categoryEligible category = iota
	categoryAlreadyHalfDay
	categoryAdminOverridden
	categoryLeave
	categoryHolidayWeeklyOff
	categorySufficientHours
	categoryNoSessions
)

func (s *Summary) bump(c category) {
	switch c {
	case categoryEligible:
		s.Eligible++
	case categoryAlreadyHalfDay:
		s.AlreadyHalfDay++
	case categoryAdminOverridden:
		s.AdminOverridden++
	case categoryLeave:
		s.Leave++
	case categoryHolidayWeeklyOff:
		s.HolidayWeeklyOff++
	case categorySufficientHours:
		s.SufficientHours++
	case categoryNoSessions:
		s.NoSessions++
	}
}

// evaluate re-resolves one log under the current rules and decides its
// category. Eligible logs come back with the corrected fields filled in but
// not yet persisted.
func (j *Job) evaluate(ctx context.Context, log *attendance.Log) (category, attendance.Log, error) {
	if log.AdminOverride {
		return categoryAdminOverridden, attendance.Log{}, nil
	}

	rs, err := j.resolver.ResolveLog(ctx, log)
	if err != nil {
		return 0, attendance.Log{}, err
	}

	switch rs.Status {
	case attendance.StatusLeave:
		return categoryLeave, attendance.Log{}, nil
	case attendance.StatusHoliday, attendance.StatusWeeklyOff:
		return categoryHolidayWeeklyOff, attendance.Log{}, nil
	}

	if len(log.Sessions) == 0 {
		return categoryNoSessions, attendance.Log{}, nil
	}

	if !rs.IsHalfDay || rs.HalfDayReasonCode != attendance.ReasonInsufficientHours {
		return categorySufficientHours, attendance.Log{}, nil
	}

	// Already half-day for any reason stays untouched.
	if log.IsHalfDay {
		return categoryAlreadyHalfDay, attendance.Log{}, nil
	}

	corrected := *log
	prevStatus := log.Status
	prevHalfDay := log.IsHalfDay
	prevReason := log.HalfDayReasonCode
	corrected.PrevStatus = &prevStatus
	corrected.PrevIsHalfDay = &prevHalfDay
	corrected.PrevHalfDayReasonCode = &prevReason

	corrected.Status = rs.Status
	corrected.IsHalfDay = rs.IsHalfDay
	corrected.HalfDayReasonCode = rs.HalfDayReasonCode
	if rs.HalfDayReasonText != "" {
		text := rs.HalfDayReasonText
		corrected.HalfDayReasonText = &text
	}
	corrected.LateMinutes = rs.LateMinutes
	corrected.TotalWorkedMinutes = rs.TotalWorkedMinutes
	corrected.TotalPayableMinutes = rs.TotalPayableMinutes

	return categoryEligible, corrected, nil
}

// applyBatch writes one batch of corrections in a single bounded transaction.
func (j *Job) applyBatch(ctx context.Context, opts Options, batch []attendance.Log) error {
	if opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.BatchTimeout)
		defer cancel()
	}

	correctedAt := j.now()
	source := SourceID
	version := Version

	return j.txr.RunInTx(ctx, func(ctx context.Context) error {
		for i := range batch {
			log := batch[i]
			log.CorrectionSource = &source
			log.CorrectionVersion = &version
			if opts.Reason != "" {
				reason := opts.Reason
				log.CorrectionReason = &reason
			}
			log.CorrectedAt = &correctedAt

			if err := j.logs.Update(ctx, log); err != nil {
				return fmt.Errorf("update log %s: %w", log.ID, err)
			}
		}
		return nil
	})
}

// Rollback restores every log this job version corrected to its recorded
// prior values and clears the provenance, making the rows eligible again.
func (j *Job) Rollback(ctx context.Context, opts Options) (Summary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	summary := Summary{RunID: uuid.NewString(), ResumeAfterID: opts.ResumeAfterID}

	slog.Info("backfill rollback starting",
		"run_id", summary.RunID, "source", SourceID, "version", Version)

	afterID := opts.ResumeAfterID
	for {
		batch, err := j.logs.ListCorrected(ctx, SourceID, Version, afterID, opts.BatchSize)
		if err != nil {
			return summary, fmt.Errorf("list corrected logs: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		// Resume point if this batch's write fails; see Run.
		batchStart := afterID

		restored := make([]attendance.Log, 0, len(batch))
		for i := range batch {
			log := batch[i]
			summary.Scanned++
			afterID = log.ID

			if log.PrevStatus == nil || log.PrevIsHalfDay == nil || log.PrevHalfDayReasonCode == nil {
				summary.Errored++
				slog.Warn("corrected log missing prior values, skipping",
					"run_id", summary.RunID, "log_id", log.ID)
				continue
			}

			log.Status = *log.PrevStatus
			log.IsHalfDay = *log.PrevIsHalfDay
			log.HalfDayReasonCode = *log.PrevHalfDayReasonCode
			log.HalfDayReasonText = nil
			log.CorrectionSource = nil
			log.CorrectionVersion = nil
			log.CorrectionReason = nil
			log.CorrectedAt = nil
			log.PrevStatus = nil
			log.PrevIsHalfDay = nil
			log.PrevHalfDayReasonCode = nil
			restored = append(restored, log)
		}

		if len(restored) > 0 {
			if err := j.applyRollback(ctx, opts, restored); err != nil {
				summary.ResumeAfterID = batchStart
				return summary, fmt.Errorf("rollback batch starting after %q: %w", batchStart, err)
			}
			summary.Updated += len(restored)
			for _, log := range restored {
				j.resolver.InvalidateStatus(log.EmployeeID, log.Date)
			}
		}

		summary.ResumeAfterID = afterID
		if len(batch) < opts.BatchSize {
			break
		}
	}

	slog.Info("backfill rollback finished",
		"run_id", summary.RunID, "scanned", summary.Scanned,
		"updated", summary.Updated, "errored", summary.Errored)

	return summary, nil
}

func (j *Job) applyRollback(ctx context.Context, opts Options, batch []attendance.Log) error {
	if opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.BatchTimeout)
		defer cancel()
	}

	return j.txr.RunInTx(ctx, func(ctx context.Context) error {
		for i := range batch {
			if err := j.logs.Update(ctx, batch[i]); err != nil {
				return fmt.Errorf("update log %s: %w", batch[i].ID, err)
			}
		}
		return nil
	})
}
