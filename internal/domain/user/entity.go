package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"    // Full access
	RoleHR       Role = "hr"       // Manages people, shifts and leave
	RoleManager  Role = "manager"  // Reviews their team's leave and attendance
	RoleEmployee Role = "employee" // Regular employee
)

var Roles = []string{string(RoleAdmin), string(RoleHR), string(RoleManager), string(RoleEmployee)}

type Address struct {
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	ZipCode *string `json:"zip_code,omitempty"`
	Country *string `json:"country,omitempty"`
}

type User struct {
	ID           string
	EmployeeID   string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	Position     string
	Phone        *string
	Address      *Address
	DateOfBirth  *time.Time
	HireDate     time.Time
	Salary       *float64
	ShiftID      *string
	ManagerID    *string
	ProfileImage *string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// DTO / Join
	ShiftName   *string
	ManagerName *string
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff checks if user is admin or hr
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleHR
}

// CanApprove checks if user can review requests
func (u *User) CanApprove() bool {
	return u.IsStaff() || u.Role == RoleManager
}
