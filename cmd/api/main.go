package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veritas-hq/attendance-engine/internal/config"
	appHTTP "github.com/veritas-hq/attendance-engine/internal/handler/http"
	"github.com/veritas-hq/attendance-engine/internal/pkg/cron"
	"github.com/veritas-hq/attendance-engine/internal/pkg/database"
	"github.com/veritas-hq/attendance-engine/internal/pkg/jwt"
	"github.com/veritas-hq/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/veritas-hq/attendance-engine/internal/service/attendance"
	authService "github.com/veritas-hq/attendance-engine/internal/service/auth"
	holidayService "github.com/veritas-hq/attendance-engine/internal/service/holiday"
	leaveService "github.com/veritas-hq/attendance-engine/internal/service/leave"
	policyService "github.com/veritas-hq/attendance-engine/internal/service/policy"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), 0)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	policyRepo := postgresql.NewPolicyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	txRunner := postgresql.NewRunner(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	resolver := resolution.NewService(
		attendanceRepo,
		holidayRepo,
		leaveRepo,
		policyRepo,
		cfg.Location(),
	)

	attendanceSvc := attendanceService.NewAttendanceService(txRunner, attendanceRepo, resolver)
	leaveSvc := leaveService.NewLeaveService(txRunner, leaveRepo, resolver)
	holidaySvc := holidayService.NewHolidayService(holidayRepo, resolver)
	policySvc := policyService.NewPolicyService(policyRepo, resolver)
	authSvc := authService.NewAuthService(employeeRepo, jwtService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler(ctx)
	cron.NewAttendanceJobs(attendanceRepo, resolver).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		jwtService,
		appHTTP.NewAuthHandler(authSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewHolidayHandler(holidaySvc),
		appHTTP.NewPolicyHandler(policySvc),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.App.Port, "timezone", cfg.App.Timezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
