package user

type Permission string

const (
	// Self Management
	PermissionViewOwnProfile Permission = "profile.view_own"
	PermissionEditOwnProfile Permission = "profile.edit_own"

	// Leave Management
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveApprove Permission = "leave.approve"
	PermissionLeaveCancel  Permission = "leave.cancel_any"

	// Attendance Management
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceEdit    Permission = "attendance.edit"

	// Shift Management
	PermissionShiftManage Permission = "shift.manage"
	PermissionShiftDelete Permission = "shift.delete"

	// User Management
	PermissionUserViewAll Permission = "user.view_all"
	PermissionUserManage  Permission = "user.manage"
	PermissionUserAdmin   Permission = "user.admin"

	// Reports & Dashboard
	PermissionReportsView   Permission = "reports.view"
	PermissionDashboardAll  Permission = "dashboard.company"
	PermissionRealtimeWatch Permission = "dashboard.realtime"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveCancel,
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceViewAll,
		PermissionAttendanceEdit,
		PermissionShiftManage,
		PermissionShiftDelete,
		PermissionUserViewAll,
		PermissionUserManage,
		PermissionUserAdmin,
		PermissionReportsView,
		PermissionDashboardAll,
		PermissionRealtimeWatch,
	},
	RoleHR: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveCancel,
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceViewAll,
		PermissionAttendanceEdit,
		PermissionShiftManage,
		PermissionUserViewAll,
		PermissionUserManage,
		PermissionReportsView,
		PermissionDashboardAll,
		PermissionRealtimeWatch,
	},
	RoleManager: {
		// Manager reviews and views team data
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceViewAll,
		PermissionReportsView,
	},
	RoleEmployee: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
