package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// AttendanceCloser is the part of the attendance service the jobs drive.
type AttendanceCloser interface {
	AutoCloseOpen(ctx context.Context, before time.Time) (int, error)
	MarkAbsent(ctx context.Context, date time.Time) (int, error)
}

type AttendanceJobs struct {
	service        AttendanceCloser
	loc            *time.Location
	autoCloseAfter time.Duration
	log            *slog.Logger
	now            func() time.Time
}

func NewAttendanceJobs(service AttendanceCloser, loc *time.Location, autoCloseAfter time.Duration, log *slog.Logger) *AttendanceJobs {
	if log == nil {
		log = slog.Default()
	}
	return &AttendanceJobs{
		service:        service,
		loc:            loc,
		autoCloseAfter: autoCloseAfter,
		log:            log,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_open_attendances", time.Hour, j.AutoCloseOpenAttendances)
	scheduler.AddJob("mark_absent_users", time.Hour, j.MarkAbsentUsers)
}

// AutoCloseOpenAttendances closes records dated before the day that was
// current autoCloseAfter ago, so an overnight shift keeps its record open
// until the grace period has passed.
func (j *AttendanceJobs) AutoCloseOpenAttendances(ctx context.Context) error {
	before := attendance.DateOnly(j.now().Add(-j.autoCloseAfter), j.loc)

	closed, err := j.service.AutoCloseOpen(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to auto-close attendances: %w", err)
	}
	if closed > 0 {
		j.log.Info("auto-closed open attendances", "count", closed, "before", before.Format("2006-01-02"))
	}
	return nil
}

// MarkAbsentUsers records absences for yesterday. Users that already have a
// record are skipped, so running it every hour is safe.
func (j *AttendanceJobs) MarkAbsentUsers(ctx context.Context) error {
	yesterday := attendance.DateOnly(j.now().In(j.loc), j.loc).AddDate(0, 0, -1)

	marked, err := j.service.MarkAbsent(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to mark absent users: %w", err)
	}
	if marked > 0 {
		j.log.Info("marked absent users", "count", marked, "date", yesterday.Format("2006-01-02"))
	}
	return nil
}
