package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	shiftService "github.com/cmlabs-hris/attendance-backend-go/internal/service/shift"
	userService "github.com/cmlabs-hris/attendance-backend-go/internal/service/user"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `
shifts:
  - name: Day
    start_time: "09:00"
    end_time: "17:00"
    working_days: [monday, tuesday, wednesday, thursday, friday]
    late_threshold: 10
users:
  - employee_id: MGR001
    first_name: Mia
    last_name: Lead
    email: Mia@Example.com
    password: password123
    role: manager
    department: Engineering
    position: Lead
    hire_date: "2022-02-01"
    shift: Day
  - employee_id: EMP001
    first_name: Eli
    last_name: Dev
    email: eli@example.com
    password: password123
    department: Engineering
    position: Developer
    shift: Day
    manager: MGR001
`

func newTestSeeder(t *testing.T) (*Seeder, *sqlite.Store, *bytes.Buffer) {
	t.Helper()

	store, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)

	seeder := NewSeeder(
		userService.NewUserService(store.Users, store.Shifts, store.Tokens, nil),
		shiftService.NewShiftService(store.Transactor, store.Shifts, store.Users, store.Attendances, time.UTC),
		store.Users,
		store.Shifts,
		log,
	)
	return seeder, store, &logs
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed(strings.NewReader(testSeed))
	require.NoError(t, err)
	require.Len(t, seed.Shifts, 1)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, seed.Shifts[0].WorkingDays)
	require.NotNil(t, seed.Shifts[0].LateThreshold)
	assert.Equal(t, 10, *seed.Shifts[0].LateThreshold)
	assert.Equal(t, "MGR001", seed.Users[1].Manager)

	t.Run("empty", func(t *testing.T) {
		seed, err := ParseSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, seed.Users)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("users:\n  - nickname: x\n"))
		assert.Error(t, err)
	})
}

func TestSeeder_Seed(t *testing.T) {
	seeder, store, logs := newTestSeeder(t)
	ctx := context.Background()

	seed, err := ParseSeed(strings.NewReader(testSeed))
	require.NoError(t, err)

	result, err := seeder.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{ShiftsCreated: 1, UsersCreated: 2}, result)
	assert.Contains(t, logs.String(), "Created user")

	mgr, err := store.Users.GetByEmail(ctx, "mia@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleManager, mgr.Role)
	assert.Equal(t, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), mgr.HireDate.UTC())

	emp, err := store.Users.GetByEmail(ctx, "eli@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmployee, emp.Role)
	require.NotNil(t, emp.ManagerID)
	assert.Equal(t, mgr.ID, *emp.ManagerID)
	require.NotNil(t, emp.ShiftID)
	assert.Equal(t, *mgr.ShiftID, *emp.ShiftID)
	assert.NotEqual(t, "password123", emp.PasswordHash)

	sh, err := store.Shifts.GetByID(ctx, *emp.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, 10, sh.LateThresholdMinutes)

	t.Run("second run skips existing records", func(t *testing.T) {
		result, err := seeder.Seed(ctx, seed)
		require.NoError(t, err)
		assert.Equal(t, SeedResult{ShiftsSkipped: 1, UsersSkipped: 2}, result)

		users, err := store.Users.Find(ctx, user.Query{})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestSeeder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		seed    SeedFile
		wantErr string
	}{
		{
			name:    "unknown shift",
			seed:    SeedFile{Users: []SeedUser{{EmployeeID: "E1", FirstName: "A", LastName: "B", Email: "a@example.com", Password: "secret1", Department: "D", Position: "P", Shift: "Graveyard"}}},
			wantErr: `unknown shift "Graveyard"`,
		},
		{
			name:    "manager listed later",
			seed:    SeedFile{Users: []SeedUser{{EmployeeID: "E1", FirstName: "A", LastName: "B", Email: "a@example.com", Password: "secret1", Department: "D", Position: "P", Manager: "M1"}}},
			wantErr: `manager "M1" must be listed before the user`,
		},
		{
			name:    "invalid shift",
			seed:    SeedFile{Shifts: []SeedShift{{Name: "Bad", StartTime: "9am", EndTime: "17:00", WorkingDays: []string{"monday"}}}},
			wantErr: `shift "Bad"`,
		},
		{
			name:    "invalid user",
			seed:    SeedFile{Users: []SeedUser{{EmployeeID: "E1", Email: "nope", Password: "x"}}},
			wantErr: `user "E1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeder, _, _ := newTestSeeder(t)
			_, err := seeder.Seed(context.Background(), &tt.seed)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("does-not-exist.yaml")
	assert.ErrorContains(t, err, "failed to open seed file")
}

func TestNewSeeder_DefaultLogger(t *testing.T) {
	s := NewSeeder(nil, nil, nil, nil, nil)
	assert.Equal(t, logrus.StandardLogger(), s.log)
}
