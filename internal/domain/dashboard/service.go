package dashboard

import "context"

// DashboardService defines the interface for dashboard operations
type DashboardService interface {
	// Overview returns the company overview for admin and hr, and the
	// personal overview for everyone else.
	Overview(ctx context.Context) (OverviewResponse, error)

	// AttendanceAnalytics covers the last days days, 30 when days <= 0.
	AttendanceAnalytics(ctx context.Context, days int) (AttendanceAnalytics, error)

	// LeaveAnalytics covers leaves starting in year, the current year when 0.
	LeaveAnalytics(ctx context.Context, year int) (LeaveAnalytics, error)

	Realtime(ctx context.Context) (RealtimeResponse, error)
}
