package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SeedFile is the layout of config/seed.yaml.
type SeedFile struct {
	Shifts []SeedShift `yaml:"shifts"`
	Users  []SeedUser  `yaml:"users"`
}

type SeedShift struct {
	Name              string   `yaml:"name"`
	Description       *string  `yaml:"description"`
	StartTime         string   `yaml:"start_time"`
	EndTime           string   `yaml:"end_time"`
	WorkingDays       []string `yaml:"working_days"`
	BreakDuration     *int     `yaml:"break_duration"`
	LateThreshold     *int     `yaml:"late_threshold"`
	OvertimeThreshold *int     `yaml:"overtime_threshold"`
	Color             *string  `yaml:"color"`
}

// SeedUser refers to its shift by name and to its manager by employee ID.
type SeedUser struct {
	EmployeeID  string   `yaml:"employee_id"`
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	Role        string   `yaml:"role"`
	Department  string   `yaml:"department"`
	Position    string   `yaml:"position"`
	Phone       *string  `yaml:"phone"`
	DateOfBirth *string  `yaml:"date_of_birth"`
	HireDate    *string  `yaml:"hire_date"`
	Salary      *float64 `yaml:"salary"`
	Shift       string   `yaml:"shift"`
	Manager     string   `yaml:"manager"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

func ParseSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// SeedResult counts what a seed run created and what it found in place.
type SeedResult struct {
	ShiftsCreated int
	ShiftsSkipped int
	UsersCreated  int
	UsersSkipped  int
}

// Seeder loads seed data through the regular services, so seeded records
// pass the same validation as API requests. Existing shifts (by name) and
// users (by email or employee ID) are left untouched.
type Seeder struct {
	users     user.UserService
	shifts    shift.ShiftService
	userRepo  user.UserRepository
	shiftRepo shift.ShiftRepository
	log       *logrus.Logger
}

func NewSeeder(users user.UserService, shifts shift.ShiftService, userRepo user.UserRepository, shiftRepo shift.ShiftRepository, log *logrus.Logger) *Seeder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Seeder{
		users:     users,
		shifts:    shifts,
		userRepo:  userRepo,
		shiftRepo: shiftRepo,
		log:       log,
	}
}

func (s *Seeder) Seed(ctx context.Context, seed *SeedFile) (SeedResult, error) {
	var result SeedResult

	shiftIDs := make(map[string]string, len(seed.Shifts))
	for _, ss := range seed.Shifts {
		id, created, err := s.seedShift(ctx, ss)
		if err != nil {
			return result, fmt.Errorf("shift %q: %w", ss.Name, err)
		}
		shiftIDs[ss.Name] = id
		if created {
			result.ShiftsCreated++
		} else {
			result.ShiftsSkipped++
		}
	}

	// managers must be listed before their reports
	userIDs := make(map[string]string, len(seed.Users))
	for _, su := range seed.Users {
		id, created, err := s.seedUser(ctx, su, shiftIDs, userIDs)
		if err != nil {
			return result, fmt.Errorf("user %q: %w", su.EmployeeID, err)
		}
		userIDs[su.EmployeeID] = id
		if created {
			result.UsersCreated++
		} else {
			result.UsersSkipped++
		}
	}

	return result, nil
}

func (s *Seeder) seedShift(ctx context.Context, ss SeedShift) (string, bool, error) {
	req := shift.CreateShiftRequest{
		Name:                     ss.Name,
		Description:              ss.Description,
		StartTime:                ss.StartTime,
		EndTime:                  ss.EndTime,
		WorkingDays:              ss.WorkingDays,
		BreakDurationMinutes:     ss.BreakDuration,
		LateThresholdMinutes:     ss.LateThreshold,
		OvertimeThresholdMinutes: ss.OvertimeThreshold,
		Color:                    ss.Color,
	}
	if err := req.Validate(); err != nil {
		return "", false, err
	}

	created, err := s.shifts.Create(ctx, req)
	if errors.Is(err, shift.ErrShiftNameExists) {
		existing, err := s.shiftRepo.GetByName(ctx, req.Name)
		if err != nil {
			return "", false, err
		}
		s.log.WithField("shift", req.Name).Debug("Shift already exists")
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, err
	}

	s.log.WithFields(logrus.Fields{"shift": created.Name, "id": created.ID}).Info("Created shift")
	return created.ID, true, nil
}

func (s *Seeder) seedUser(ctx context.Context, su SeedUser, shiftIDs, userIDs map[string]string) (string, bool, error) {
	req := user.CreateUserRequest{
		EmployeeID:  su.EmployeeID,
		FirstName:   su.FirstName,
		LastName:    su.LastName,
		Email:       su.Email,
		Password:    su.Password,
		Role:        su.Role,
		Department:  su.Department,
		Position:    su.Position,
		Phone:       su.Phone,
		DateOfBirth: su.DateOfBirth,
		HireDate:    su.HireDate,
		Salary:      su.Salary,
	}
	if su.Shift != "" {
		id, ok := shiftIDs[su.Shift]
		if !ok {
			return "", false, fmt.Errorf("unknown shift %q", su.Shift)
		}
		req.ShiftID = &id
	}
	if su.Manager != "" {
		id, ok := userIDs[su.Manager]
		if !ok {
			return "", false, fmt.Errorf("manager %q must be listed before the user", su.Manager)
		}
		req.ManagerID = &id
	}
	if err := req.Validate(); err != nil {
		return "", false, err
	}

	created, err := s.users.Create(ctx, req)
	if errors.Is(err, user.ErrUserExists) {
		existing, err := s.userRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			return "", false, fmt.Errorf("employee ID is taken by another email: %w", err)
		}
		s.log.WithField("employee_id", req.EmployeeID).Debug("User already exists")
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, err
	}

	s.log.WithFields(logrus.Fields{
		"employee_id": created.EmployeeID,
		"role":        created.Role,
	}).Info("Created user")
	return created.ID, true, nil
}
