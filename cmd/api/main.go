package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/logger"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/attendance-backend-go/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/attendance-backend-go/internal/service/dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	leaveService "github.com/cmlabs-hris/attendance-backend-go/internal/service/leave"
	reportService "github.com/cmlabs-hris/attendance-backend-go/internal/service/report"
	shiftService "github.com/cmlabs-hris/attendance-backend-go/internal/service/shift"
	userService "github.com/cmlabs-hris/attendance-backend-go/internal/service/user"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// repositories is the storage backend selected by DB_DRIVER.
type repositories struct {
	db          database.Transactor
	users       user.UserRepository
	shifts      shift.ShiftRepository
	attendances attendance.AttendanceRepository
	leaves      leave.LeaveRepository
	tokens      auth.TokenRepository
	close       func()
}

func openRepositories(cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := sqlite.NewStore(db)
		if err != nil {
			return nil, err
		}
		return &repositories{
			db:          store.Transactor,
			users:       store.Users,
			shifts:      store.Shifts,
			attendances: store.Attendances,
			leaves:      store.Leaves,
			tokens:      store.Tokens,
			close:       func() { store.Close() },
		}, nil
	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, err
		}
		return &repositories{
			db:          postgresql.NewTransactor(db),
			users:       postgresql.NewUserRepository(db),
			shifts:      postgresql.NewShiftRepository(db),
			attendances: postgresql.NewAttendanceRepository(db),
			leaves:      postgresql.NewLeaveRepository(db),
			tokens:      postgresql.NewTokenRepository(db),
			close:       db.Close,
		}, nil
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.App)
	slog.SetDefault(log)
	loc := cfg.Location()

	repos, err := openRepositories(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repos.close()
	log.Info("Database connected", "driver", cfg.Database.Driver)

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	hub := sse.NewHub()
	fileService := file.NewFileService(fileStorage)

	authService := serviceAuth.NewAuthService(repos.db, repos.users, repos.tokens, JWTService)
	userSvc := userService.NewUserService(repos.users, repos.shifts, repos.tokens, fileService)
	shiftSvc := shiftService.NewShiftService(repos.db, repos.shifts, repos.users, repos.attendances, loc)
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.db,
		repos.attendances,
		repos.users,
		repos.shifts,
		repos.leaves,
		fileService,
		hub,
		cfg.Geofence,
		loc,
	)
	leaveSvc := leaveService.NewLeaveService(repos.db, repos.leaves, repos.users, fileService, loc)
	dashboardSvc := dashboardService.NewDashboardService(repos.attendances, repos.users, repos.leaves, repos.shifts, loc)
	reportSvc := reportService.NewReportService(repos.attendances, repos.users, repos.leaves, loc)

	router := appHTTP.NewRouter(cfg, log, JWTService, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(JWTService, authService),
		User:       appHTTP.NewUserHandler(userSvc),
		Shift:      appHTTP.NewShiftHandler(shiftSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc),
		Dashboard:  appHTTP.NewDashboardHandler(dashboardSvc, JWTService, hub),
		Report:     appHTTP.NewReportHandler(reportSvc, loc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler(log)
		cron.NewAttendanceJobs(attendanceSvc, loc, cfg.Cron.AutoCloseAfter, log).RegisterJobs(scheduler)
		g.Go(func() error {
			scheduler.Start(ctx)
			<-ctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	g.Go(func() error {
		log.Info("Server running", "addr", "http://localhost"+server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
