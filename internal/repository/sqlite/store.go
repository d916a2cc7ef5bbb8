package sqlite

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store bundles the embedded repositories behind one gorm handle.
type Store struct {
	DB          *gorm.DB
	Transactor  database.Transactor
	Users       *UserRepository
	Shifts      *ShiftRepository
	Attendances *AttendanceRepository
	Leaves      *LeaveRepository
	Tokens      *TokenRepository
}

func NewStore(db *gorm.DB) (*Store, error) {
	s := &Store{DB: db, Transactor: NewTransactor(db)}

	var err error
	if s.Shifts, err = NewShiftRepository(db); err != nil {
		return nil, err
	}
	if s.Users, err = NewUserRepository(db); err != nil {
		return nil, err
	}
	if s.Attendances, err = NewAttendanceRepository(db); err != nil {
		return nil, err
	}
	if s.Leaves, err = NewLeaveRepository(db); err != nil {
		return nil, err
	}
	if s.Tokens, err = NewTokenRepository(db); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenMemory opens a private in-memory store, mainly for tests.
func OpenMemory() (*Store, error) {
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	return NewStore(db)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
