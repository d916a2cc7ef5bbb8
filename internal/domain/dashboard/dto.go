package dashboard

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
)

// ========== OVERVIEW ==========

type UserSummary struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// OverviewResponse carries exactly one of Admin or Employee, depending on
// the caller's role.
type OverviewResponse struct {
	Admin    *AdminOverview    `json:"admin,omitempty"`
	Employee *EmployeeOverview `json:"employee,omitempty"`
	User     UserSummary       `json:"user"`
}

type TodayAttendance struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	OnBreak int `json:"on_break"`
}

type LeaveRequestCounts struct {
	Pending           int `json:"pending"`
	ApprovedThisMonth int `json:"approved_this_month"`
	TotalThisMonth    int `json:"total_this_month"`
}

type AdminOverview struct {
	TotalEmployees        int                             `json:"total_employees"`
	NewEmployeesThisMonth int                             `json:"new_employees_this_month"`
	TodayAttendance       TodayAttendance                 `json:"today_attendance"`
	LeaveRequests         LeaveRequestCounts              `json:"leave_requests"`
	RecentCheckIns        []attendance.AttendanceResponse `json:"recent_check_ins"`
	PendingLeaves         []leave.LeaveResponse           `json:"pending_leaves"`
}

type TodayStatus struct {
	HasCheckedIn  bool                      `json:"has_checked_in"`
	HasCheckedOut bool                      `json:"has_checked_out"`
	CheckInTime   *string                   `json:"check_in_time,omitempty"`
	CheckOutTime  *string                   `json:"check_out_time,omitempty"`
	IsLate        bool                      `json:"is_late"`
	LateMinutes   int                       `json:"late_minutes"`
	WorkingHours  string                    `json:"working_hours"` // e.g. "7h 45m"
	ActiveBreak   *attendance.BreakResponse `json:"active_break,omitempty"`
	Shift         *shift.ShiftResponse      `json:"shift,omitempty"`
}

type MonthlyStats struct {
	TotalWorkingDays    int     `json:"total_working_days"`
	PresentDays         int     `json:"present_days"`
	LateDays            int     `json:"late_days"`
	TotalWorkingHours   float64 `json:"total_working_hours"`
	AverageWorkingHours float64 `json:"average_working_hours"`
}

type LeaveInfo struct {
	TotalThisMonth  int                   `json:"total_this_month"`
	PendingRequests int                   `json:"pending_requests"`
	ApprovedDays    float64               `json:"approved_days"`
	UpcomingLeaves  []leave.LeaveResponse `json:"upcoming_leaves"`
}

type EmployeeOverview struct {
	TodayStatus      TodayStatus                     `json:"today_status"`
	MonthlyStats     MonthlyStats                    `json:"monthly_stats"`
	LeaveInfo        LeaveInfo                       `json:"leave_info"`
	RecentAttendance []attendance.AttendanceResponse `json:"recent_attendance"`
}

// ========== ATTENDANCE ANALYTICS ==========

type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type DailyTrend struct {
	Date         string  `json:"date"`
	Present      int     `json:"present"`
	Late         int     `json:"late"`
	TotalHours   float64 `json:"total_hours"`
	AverageHours float64 `json:"average_hours"`
}

type DepartmentAttendance struct {
	Department     string  `json:"department"`
	TotalEmployees int     `json:"total_employees"`
	AttendanceRate float64 `json:"attendance_rate"`
	LateRate       float64 `json:"late_rate"`
}

type Performer struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	EmployeeID     string  `json:"employee_id"`
	Department     string  `json:"department"`
	TotalDays      int     `json:"total_days"`
	PresentDays    int     `json:"present_days"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type AttendanceAnalytics struct {
	Period         Period                 `json:"period"`
	DailyTrends    []DailyTrend           `json:"daily_trends"`
	DepartmentWise []DepartmentAttendance `json:"department_wise"`
	TopPerformers  []Performer            `json:"top_performers"`
}

// ========== LEAVE ANALYTICS ==========

type LeaveTypeUsage struct {
	Type      string  `json:"type"`
	Count     int     `json:"count"`
	TotalDays float64 `json:"total_days"`
	Pending   int     `json:"pending"`
	Approved  int     `json:"approved"`
}

type DepartmentLeave struct {
	Department       string  `json:"department"`
	TotalEmployees   int     `json:"total_employees"`
	TotalLeaves      int     `json:"total_leaves"`
	TotalDays        float64 `json:"total_days"`
	AverageLeaveDays float64 `json:"average_leave_days"`
}

type LeaveAnalytics struct {
	Year           int                     `json:"year"`
	MonthlyTrends  []leave.MonthStatusStat `json:"monthly_trends"`
	LeaveTypes     []LeaveTypeUsage        `json:"leave_types"`
	DepartmentWise []DepartmentLeave       `json:"department_wise"`
}

// ========== REALTIME ==========

type CurrentStats struct {
	CurrentlyPresent int `json:"currently_present"`
	OnBreak          int `json:"on_break"`
	LateToday        int `json:"late_today"`
	PendingLeaves    int `json:"pending_leaves"`
}

type Activity struct {
	UserID     string  `json:"user_id"`
	UserName   *string `json:"user_name,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Action     string  `json:"action"` // checkin or checkout
	Time       string  `json:"time"`
	IsLate     bool    `json:"is_late"`
}

type RealtimeResponse struct {
	CurrentStats     CurrentStats          `json:"current_stats"`
	RecentActivities []Activity            `json:"recent_activities"`
	OnLeaveToday     []leave.LeaveResponse `json:"on_leave_today"`
	LastUpdated      string                `json:"last_updated"`
}
