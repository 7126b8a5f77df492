package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritas-hq/attendance-engine/internal/config"
	"github.com/veritas-hq/attendance-engine/internal/pkg/database"
	"github.com/veritas-hq/attendance-engine/internal/repository/postgresql"
	"github.com/veritas-hq/attendance-engine/internal/service/backfill"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

var (
	flagFrom        string
	flagTo          string
	flagExecute     bool
	flagRollback    bool
	flagBatchSize   int
	flagReason      string
	flagResumeAfter string
)

var rootCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Reclassify historical attendance logs under the insufficient-hours half-day rule",
	Long: `Scans attendance logs in a date range and reclassifies full-day absences
that were recorded before the insufficient-hours rule existed. Dry run by
default: pass --execute to write, or --rollback to undo a previous run.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagFrom, "from", "", "start date, inclusive (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&flagTo, "to", "", "end date, inclusive (YYYY-MM-DD)")
	rootCmd.Flags().BoolVar(&flagExecute, "execute", false, "write corrections instead of reporting")
	rootCmd.Flags().BoolVar(&flagRollback, "rollback", false, "restore logs corrected by a previous run")
	rootCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "logs per transaction (default from BACKFILL_BATCH_SIZE)")
	rootCmd.Flags().StringVar(&flagReason, "reason", "", "audit reason recorded on every corrected log")
	rootCmd.Flags().StringVar(&flagResumeAfter, "resume-after", "", "log ID to resume a failed run after")

	_ = rootCmd.MarkFlagRequired("from")
	_ = rootCmd.MarkFlagRequired("to")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flagExecute && flagRollback {
		return fmt.Errorf("--execute and --rollback are mutually exclusive")
	}
	if flagExecute && flagReason == "" {
		return fmt.Errorf("--reason is required with --execute")
	}

	loc := cfg.Location()
	from, err := time.ParseInLocation("2006-01-02", flagFrom, loc)
	if err != nil {
		return fmt.Errorf("invalid --from date %q: %w", flagFrom, err)
	}
	to, err := time.ParseInLocation("2006-01-02", flagTo, loc)
	if err != nil {
		return fmt.Errorf("invalid --to date %q: %w", flagTo, err)
	}

	// A small pool: batch work must not crowd out the API server.
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), 4)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	policyRepo := postgresql.NewPolicyRepository(db)

	resolver := resolution.NewService(attendanceRepo, holidayRepo, leaveRepo, policyRepo, loc)
	job := backfill.NewJob(attendanceRepo, resolver, postgresql.NewRunner(db))

	batchSize := flagBatchSize
	if batchSize <= 0 {
		batchSize = cfg.Backfill.BatchSize
	}
	opts := backfill.Options{
		From:          from,
		To:            to,
		BatchSize:     batchSize,
		Execute:       flagExecute,
		Reason:        flagReason,
		BatchTimeout:  cfg.Backfill.BatchTxTimeout,
		ResumeAfterID: flagResumeAfter,
	}

	var summary backfill.Summary
	var runErr error
	if flagRollback {
		summary, runErr = job.Rollback(cmd.Context(), opts)
	} else {
		summary, runErr = job.Run(cmd.Context(), opts)
	}

	printSummary(summary)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "run stopped: %v\n", runErr)
		if summary.ResumeAfterID != "" {
			fmt.Fprintf(os.Stderr, "resume with --resume-after=%s\n", summary.ResumeAfterID)
		}
		return runErr
	}
	return nil
}

func printSummary(s backfill.Summary) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", s)
		return
	}
	fmt.Println(string(out))
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
