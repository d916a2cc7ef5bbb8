package user

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const maxProfileImageSize = 5 << 20

// UserResponse represents user data in API responses
type UserResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Department   string   `json:"department"`
	Position     string   `json:"position"`
	Phone        *string  `json:"phone,omitempty"`
	Address      *Address `json:"address,omitempty"`
	DateOfBirth  *string  `json:"date_of_birth,omitempty"`
	HireDate     string   `json:"hire_date"`
	Salary       *float64 `json:"salary,omitempty"`
	ShiftID      *string  `json:"shift_id,omitempty"`
	ShiftName    *string  `json:"shift_name,omitempty"`
	ManagerID    *string  `json:"manager_id,omitempty"`
	ManagerName  *string  `json:"manager_name,omitempty"`
	ProfileImage *string  `json:"profile_image,omitempty"`
	IsActive     bool     `json:"is_active"`
	LastLogin    *string  `json:"last_login,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func ToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		EmployeeID:   u.EmployeeID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		FullName:     u.FullName(),
		Email:        u.Email,
		Role:         string(u.Role),
		Department:   u.Department,
		Position:     u.Position,
		Phone:        u.Phone,
		Address:      u.Address,
		HireDate:     u.HireDate.Format("2006-01-02"),
		Salary:       u.Salary,
		ShiftID:      u.ShiftID,
		ShiftName:    u.ShiftName,
		ManagerID:    u.ManagerID,
		ManagerName:  u.ManagerName,
		ProfileImage: u.ProfileImage,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    u.UpdatedAt.Format(time.RFC3339),
	}
	if u.DateOfBirth != nil {
		s := u.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &s
	}
	if u.LastLogin != nil {
		s := u.LastLogin.Format(time.RFC3339)
		resp.LastLogin = &s
	}
	return resp
}

// CreateUserRequest represents request to create a new user
type CreateUserRequest struct {
	EmployeeID  string   `json:"employee_id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Department  string   `json:"department"`
	Position    string   `json:"position"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *Address `json:"address,omitempty"`
	DateOfBirth *string  `json:"date_of_birth,omitempty"`
	HireDate    *string  `json:"hire_date,omitempty"`
	Salary      *float64 `json:"salary,omitempty"`
	ShiftID     *string  `json:"shift_id,omitempty"`
	ManagerID   *string  `json:"manager_id,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)

	required := []struct {
		field, value, message string
	}{
		{"employee_id", r.EmployeeID, "employee ID is required"},
		{"first_name", r.FirstName, "first name is required"},
		{"last_name", r.LastName, "last name is required"},
		{"department", r.Department, "department is required"},
		{"position", r.Position, "position is required"},
	}
	for _, f := range required {
		if validator.IsEmpty(f.value) {
			errs = append(errs, validator.ValidationError{Field: f.field, Message: f.message})
		}
	}

	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "please provide a valid email",
		})
	}
	if len(r.Password) < 6 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 6 characters",
		})
	}
	if r.Role == "" {
		r.Role = string(RoleEmployee)
	} else if !validator.IsInSlice(r.Role, Roles) {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be one of: admin, hr, manager, employee",
		})
	}
	errs = append(errs, validateProfileFields(r.Phone, r.DateOfBirth, r.HireDate, r.Salary)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToEntity builds the user; the caller sets the password hash.
func (r *CreateUserRequest) ToEntity(now time.Time) User {
	u := User{
		EmployeeID: r.EmployeeID,
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		Email:      r.Email,
		Role:       Role(r.Role),
		Department: strings.TrimSpace(r.Department),
		Position:   strings.TrimSpace(r.Position),
		Phone:      r.Phone,
		Address:    r.Address,
		HireDate:   now,
		Salary:     r.Salary,
		ShiftID:    emptyToNil(r.ShiftID),
		ManagerID:  emptyToNil(r.ManagerID),
		IsActive:   true,
	}
	if r.DateOfBirth != nil {
		if t, ok := validator.IsValidDate(*r.DateOfBirth); ok {
			u.DateOfBirth = &t
		}
	}
	if r.HireDate != nil {
		if t, ok := validator.IsValidDate(*r.HireDate); ok {
			u.HireDate = t
		}
	}
	return u
}

// UpdateUserRequest carries a partial update. Role and IsActive are only
// honored for admins; the service strips them for everyone else.
type UpdateUserRequest struct {
	ID          string   `json:"-"`
	FirstName   *string  `json:"first_name,omitempty"`
	LastName    *string  `json:"last_name,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Department  *string  `json:"department,omitempty"`
	Position    *string  `json:"position,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *Address `json:"address,omitempty"`
	DateOfBirth *string  `json:"date_of_birth,omitempty"`
	Salary      *float64 `json:"salary,omitempty"`
	ShiftID     *string  `json:"shift_id,omitempty"`
	ManagerID   *string  `json:"manager_id,omitempty"`
	Role        *string  `json:"role,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &email
		if !validator.IsValidEmail(email) {
			errs = append(errs, validator.ValidationError{
				Field:   "email",
				Message: "please provide a valid email",
			})
		}
	}
	if r.FirstName != nil && validator.IsEmpty(*r.FirstName) {
		errs = append(errs, validator.ValidationError{
			Field:   "first_name",
			Message: "first name cannot be empty",
		})
	}
	if r.LastName != nil && validator.IsEmpty(*r.LastName) {
		errs = append(errs, validator.ValidationError{
			Field:   "last_name",
			Message: "last name cannot be empty",
		})
	}
	if r.Role != nil && !validator.IsInSlice(*r.Role, Roles) {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be one of: admin, hr, manager, employee",
		})
	}
	errs = append(errs, validateProfileFields(r.Phone, r.DateOfBirth, nil, r.Salary)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Apply copies the set fields onto u.
func (r *UpdateUserRequest) Apply(u *User) {
	if r.FirstName != nil {
		u.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		u.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Department != nil {
		u.Department = strings.TrimSpace(*r.Department)
	}
	if r.Position != nil {
		u.Position = strings.TrimSpace(*r.Position)
	}
	if r.Phone != nil {
		u.Phone = r.Phone
	}
	if r.Address != nil {
		u.Address = r.Address
	}
	if r.DateOfBirth != nil {
		if t, ok := validator.IsValidDate(*r.DateOfBirth); ok {
			u.DateOfBirth = &t
		}
	}
	if r.Salary != nil {
		u.Salary = r.Salary
	}
	if r.ShiftID != nil {
		u.ShiftID = emptyToNil(r.ShiftID)
	}
	if r.ManagerID != nil {
		u.ManagerID = emptyToNil(r.ManagerID)
	}
	if r.Role != nil {
		u.Role = Role(*r.Role)
	}
	if r.IsActive != nil {
		u.IsActive = *r.IsActive
	}
}

type UploadProfileImageRequest struct {
	UserID     string                `json:"-"`
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *UploadProfileImageRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FileHeader == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "profileImage",
			Message: "no image file provided",
		})
	} else {
		ext := strings.ToLower(filepath.Ext(r.FileHeader.Filename))
		if !validator.IsInSlice(ext, []string{".jpg", ".jpeg", ".png", ".gif"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "profileImage",
				Message: "invalid file type: only jpg, jpeg, png, gif allowed",
			})
		} else if r.FileHeader.Size > maxProfileImageSize {
			errs = append(errs, validator.ValidationError{
				Field:   "profileImage",
				Message: "file too large, maximum size is 5MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UserFilter struct {
	Department *string `json:"department,omitempty"`
	Role       *string `json:"role,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Search     *string `json:"search,omitempty"` // name, email or employee ID

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *UserFilter) Validate() error {
	errs := validator.Pagination(&f.Page, &f.Limit)

	if f.Role != nil && !validator.IsInSlice(*f.Role, Roles) {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be one of: admin, hr, manager, employee",
		})
	}
	if f.Search != nil {
		s := strings.TrimSpace(*f.Search)
		f.Search = &s
		if len(s) > 100 {
			errs = append(errs, validator.ValidationError{
				Field:   "search",
				Message: "search must not exceed 100 characters",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Query selects users for aggregation and background jobs.
type Query struct {
	IDs        []string
	Department *string
	ManagerID  *string
	ShiftID    *string
	ActiveOnly bool
}

type ListUserResponse struct {
	TotalCount int64          `json:"-"`
	Page       int            `json:"-"`
	Limit      int            `json:"-"`
	TotalPages int            `json:"-"`
	Showing    string         `json:"-"`
	Users      []UserResponse `json:"users"`
}

// Pagination implements response.Page.
func (r ListUserResponse) Pagination() (page, limit int, total int64, totalPages int, showing string) {
	return r.Page, r.Limit, r.TotalCount, r.TotalPages, r.Showing
}

type CountByKey struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type UserStatsResponse struct {
	Total        int          `json:"total"`
	Active       int          `json:"active"`
	Inactive     int          `json:"inactive"`
	ByRole       []CountByKey `json:"by_role"`
	ByDepartment []CountByKey `json:"by_department"`
}

func validateProfileFields(phone, dob, hireDate *string, salary *float64) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if phone != nil && *phone != "" && !validator.IsValidPhoneNumber(*phone) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone",
			Message: "invalid phone number",
		})
	}
	errs = append(errs, validator.OptionalDate("date_of_birth", dob)...)
	errs = append(errs, validator.OptionalDate("hire_date", hireDate)...)
	if salary != nil && *salary < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "salary",
			Message: "salary must not be negative",
		})
	}
	return errs
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
