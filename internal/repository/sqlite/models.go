package sqlite

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
)

// Calendar days are stored as YYYY-MM-DD text so range filters compare
// lexically and never shift with the connection timezone.
const dayLayout = "2006-01-02"

func formatDay(t time.Time) string {
	return t.Format(dayLayout)
}

func parseDay(s string) time.Time {
	t, _ := time.Parse(dayLayout, s)
	return t
}

type shiftModel struct {
	ID                string   `gorm:"primaryKey;type:varchar(36)"`
	Name              string   `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description       *string  `gorm:"type:varchar(200)"`
	StartTime         string   `gorm:"type:varchar(5);not null"`
	EndTime           string   `gorm:"type:varchar(5);not null"`
	WorkingDays       []string `gorm:"serializer:json"`
	BreakDuration     int      `gorm:"not null"`
	LateThreshold     int      `gorm:"not null"`
	OvertimeThreshold int      `gorm:"not null"`
	IsActive          bool     `gorm:"not null;index"`
	Color             string   `gorm:"type:varchar(7);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (shiftModel) TableName() string {
	return "shifts"
}

func shiftFromDomain(s shift.Shift) shiftModel {
	return shiftModel{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		WorkingDays:       s.WorkingDays,
		BreakDuration:     s.BreakDurationMinutes,
		LateThreshold:     s.LateThresholdMinutes,
		OvertimeThreshold: s.OvertimeThresholdMinutes,
		IsActive:          s.IsActive,
		Color:             s.Color,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (m shiftModel) toDomain() shift.Shift {
	return shift.Shift{
		ID:                       m.ID,
		Name:                     m.Name,
		Description:              m.Description,
		StartTime:                m.StartTime,
		EndTime:                  m.EndTime,
		WorkingDays:              m.WorkingDays,
		BreakDurationMinutes:     m.BreakDuration,
		LateThresholdMinutes:     m.LateThreshold,
		OvertimeThresholdMinutes: m.OvertimeThreshold,
		IsActive:                 m.IsActive,
		Color:                    m.Color,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}

type userModel struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)"`
	EmployeeID   string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	FirstName    string        `gorm:"type:varchar(50);not null"`
	LastName     string        `gorm:"type:varchar(50);not null"`
	Email        string        `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string        `gorm:"not null"`
	Role         string        `gorm:"type:varchar(20);not null;index"`
	Department   string        `gorm:"type:varchar(100);not null;index"`
	Position     string        `gorm:"type:varchar(100);not null"`
	Phone        *string       `gorm:"type:varchar(30)"`
	Address      *user.Address `gorm:"serializer:json"`
	DateOfBirth  *time.Time
	HireDate     time.Time
	Salary       *float64
	ShiftID      *string `gorm:"type:varchar(36);index"`
	ManagerID    *string `gorm:"type:varchar(36);index"`
	ProfileImage *string
	IsActive     bool `gorm:"not null;index"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Shift   *shiftModel `gorm:"foreignKey:ShiftID"`
	Manager *userModel  `gorm:"foreignKey:ManagerID"`
}

func (userModel) TableName() string {
	return "users"
}

func userFromDomain(u user.User) userModel {
	return userModel{
		ID:           u.ID,
		EmployeeID:   u.EmployeeID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Department:   u.Department,
		Position:     u.Position,
		Phone:        u.Phone,
		Address:      u.Address,
		DateOfBirth:  u.DateOfBirth,
		HireDate:     u.HireDate,
		Salary:       u.Salary,
		ShiftID:      u.ShiftID,
		ManagerID:    u.ManagerID,
		ProfileImage: u.ProfileImage,
		IsActive:     u.IsActive,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m userModel) toDomain() user.User {
	u := user.User{
		ID:           m.ID,
		EmployeeID:   m.EmployeeID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         user.Role(m.Role),
		Department:   m.Department,
		Position:     m.Position,
		Phone:        m.Phone,
		Address:      m.Address,
		DateOfBirth:  m.DateOfBirth,
		HireDate:     m.HireDate,
		Salary:       m.Salary,
		ShiftID:      m.ShiftID,
		ManagerID:    m.ManagerID,
		ProfileImage: m.ProfileImage,
		IsActive:     m.IsActive,
		LastLogin:    m.LastLogin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Shift != nil {
		u.ShiftName = &m.Shift.Name
	}
	if m.Manager != nil {
		name := m.Manager.fullName()
		u.ManagerName = &name
	}
	return u
}

func (m *userModel) fullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

type checkPointModel struct {
	Time      *time.Time
	Latitude  *float64
	Longitude *float64
	Address   *string
	Image     *string
	IP        *string `gorm:"type:varchar(64)"`
	Device    *string
}

func checkPointFromDomain(c attendance.CheckPoint) checkPointModel {
	return checkPointModel{
		Time:      c.Time,
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
		Address:   c.Location.Address,
		Image:     c.Image,
		IP:        c.IPAddress,
		Device:    c.Device,
	}
}

func (m checkPointModel) toDomain() attendance.CheckPoint {
	return attendance.CheckPoint{
		Time: m.Time,
		Location: attendance.Location{
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			Address:   m.Address,
		},
		Image:     m.Image,
		IPAddress: m.IP,
		Device:    m.Device,
	}
}

type attendanceModel struct {
	ID              string             `gorm:"primaryKey;type:varchar(36)"`
	UserID          string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_attendance_user_date"`
	Date            string             `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_user_date;index"`
	ShiftID         *string            `gorm:"type:varchar(36)"`
	CheckIn         checkPointModel    `gorm:"embedded;embeddedPrefix:check_in_"`
	CheckOut        checkPointModel    `gorm:"embedded;embeddedPrefix:check_out_"`
	Breaks          []attendance.Break `gorm:"serializer:json"`
	WorkingMinutes  int                `gorm:"not null"`
	OvertimeMinutes int                `gorm:"not null"`
	IsLate          bool               `gorm:"not null"`
	LateMinutes     int                `gorm:"not null"`
	Status          string             `gorm:"type:varchar(20);not null;index"`
	Notes           *string            `gorm:"type:varchar(500)"`
	ApprovedBy      *string            `gorm:"type:varchar(36)"`
	ApprovedAt      *time.Time
	Version         int `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	User  *userModel  `gorm:"foreignKey:UserID"`
	Shift *shiftModel `gorm:"foreignKey:ShiftID"`
}

func (attendanceModel) TableName() string {
	return "attendances"
}

func attendanceFromDomain(a attendance.Attendance) attendanceModel {
	return attendanceModel{
		ID:              a.ID,
		UserID:          a.UserID,
		Date:            formatDay(a.Date),
		ShiftID:         a.ShiftID,
		CheckIn:         checkPointFromDomain(a.CheckIn),
		CheckOut:        checkPointFromDomain(a.CheckOut),
		Breaks:          a.Breaks,
		WorkingMinutes:  a.WorkingMinutes,
		OvertimeMinutes: a.OvertimeMinutes,
		IsLate:          a.IsLate,
		LateMinutes:     a.LateMinutes,
		Status:          string(a.Status),
		Notes:           a.Notes,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      a.ApprovedAt,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (m attendanceModel) toDomain() attendance.Attendance {
	a := attendance.Attendance{
		ID:              m.ID,
		UserID:          m.UserID,
		Date:            parseDay(m.Date),
		ShiftID:         m.ShiftID,
		CheckIn:         m.CheckIn.toDomain(),
		CheckOut:        m.CheckOut.toDomain(),
		Breaks:          m.Breaks,
		WorkingMinutes:  m.WorkingMinutes,
		OvertimeMinutes: m.OvertimeMinutes,
		IsLate:          m.IsLate,
		LateMinutes:     m.LateMinutes,
		Status:          attendance.Status(m.Status),
		Notes:           m.Notes,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.User != nil {
		name := m.User.fullName()
		a.UserName = &name
		a.EmployeeCode = &m.User.EmployeeID
		a.UserDepartment = &m.User.Department
	}
	if m.Shift != nil {
		a.ShiftName = &m.Shift.Name
	}
	return a
}

type leaveModel struct {
	ID                    string              `gorm:"primaryKey;type:varchar(36)"`
	UserID                string              `gorm:"type:varchar(36);not null;index"`
	Type                  string              `gorm:"type:varchar(20);not null;index"`
	StartDate             string              `gorm:"type:varchar(10);not null;index"`
	EndDate               string              `gorm:"type:varchar(10);not null"`
	TotalDays             float64             `gorm:"not null"`
	Reason                string              `gorm:"type:varchar(500);not null"`
	Status                string              `gorm:"type:varchar(20);not null;index"`
	AppliedDate           time.Time           `gorm:"not null"`
	ReviewedBy            *string             `gorm:"type:varchar(36)"`
	ReviewedAt            *time.Time
	ReviewComments        *string             `gorm:"type:varchar(500)"`
	Attachments           []leave.Attachment  `gorm:"serializer:json"`
	IsHalfDay             bool                `gorm:"not null"`
	HalfDayPeriod         *string             `gorm:"type:varchar(10)"`
	ContactDuringLeave    *leave.Contact      `gorm:"serializer:json"`
	HandoverNotes         *string
	ReplacementEmployeeID *string `gorm:"type:varchar(36)"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	User        *userModel `gorm:"foreignKey:UserID"`
	Reviewer    *userModel `gorm:"foreignKey:ReviewedBy"`
	Replacement *userModel `gorm:"foreignKey:ReplacementEmployeeID"`
}

func (leaveModel) TableName() string {
	return "leaves"
}

func leaveFromDomain(l leave.Leave) leaveModel {
	m := leaveModel{
		ID:                    l.ID,
		UserID:                l.UserID,
		Type:                  string(l.Type),
		StartDate:             formatDay(l.StartDate),
		EndDate:               formatDay(l.EndDate),
		TotalDays:             l.TotalDays,
		Reason:                l.Reason,
		Status:                string(l.Status),
		AppliedDate:           l.AppliedDate,
		ReviewedBy:            l.ReviewedBy,
		ReviewedAt:            l.ReviewedAt,
		ReviewComments:        l.ReviewComments,
		Attachments:           l.Attachments,
		IsHalfDay:             l.IsHalfDay,
		ContactDuringLeave:    l.ContactDuringLeave,
		HandoverNotes:         l.HandoverNotes,
		ReplacementEmployeeID: l.ReplacementEmployeeID,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
	}
	if l.HalfDayPeriod != nil {
		period := string(*l.HalfDayPeriod)
		m.HalfDayPeriod = &period
	}
	return m
}

func (m leaveModel) toDomain() leave.Leave {
	l := leave.Leave{
		ID:                    m.ID,
		UserID:                m.UserID,
		Type:                  leave.Type(m.Type),
		StartDate:             parseDay(m.StartDate),
		EndDate:               parseDay(m.EndDate),
		TotalDays:             m.TotalDays,
		Reason:                m.Reason,
		Status:                leave.Status(m.Status),
		AppliedDate:           m.AppliedDate,
		ReviewedBy:            m.ReviewedBy,
		ReviewedAt:            m.ReviewedAt,
		ReviewComments:        m.ReviewComments,
		Attachments:           m.Attachments,
		IsHalfDay:             m.IsHalfDay,
		ContactDuringLeave:    m.ContactDuringLeave,
		HandoverNotes:         m.HandoverNotes,
		ReplacementEmployeeID: m.ReplacementEmployeeID,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if m.HalfDayPeriod != nil {
		period := leave.HalfDayPeriod(*m.HalfDayPeriod)
		l.HalfDayPeriod = &period
	}
	if m.User != nil {
		name := m.User.fullName()
		l.UserName = &name
		l.EmployeeCode = &m.User.EmployeeID
		l.UserDepartment = &m.User.Department
		l.UserPosition = &m.User.Position
	}
	if m.Reviewer != nil {
		name := m.Reviewer.fullName()
		l.ReviewerName = &name
	}
	if m.Replacement != nil {
		name := m.Replacement.fullName()
		l.ReplacementName = &name
	}
	return l
}

type refreshTokenModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	TokenHash string    `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	UserAgent string
	IPAddress string `gorm:"type:varchar(64)"`
	CreatedAt time.Time
}

func (refreshTokenModel) TableName() string {
	return "refresh_tokens"
}
