package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

const userColumns = `
	u.id, u.employee_id, u.first_name, u.last_name, u.email, u.password_hash, u.role,
	u.department, u.position, u.phone, u.address, u.date_of_birth, u.hire_date, u.salary,
	u.shift_id, u.manager_id, u.profile_image, u.is_active, u.last_login, u.created_at, u.updated_at,
	s.name, NULLIF(TRIM(m.first_name || ' ' || m.last_name), '')
`

const userFrom = `
	FROM users u
	LEFT JOIN shifts s ON s.id = u.shift_id
	LEFT JOIN users m ON m.id = u.manager_id
`

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.EmployeeID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Department, &u.Position, &u.Phone, &u.Address, &u.DateOfBirth, &u.HireDate, &u.Salary,
		&u.ShiftID, &u.ManagerID, &u.ProfileImage, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
		&u.ShiftName, &u.ManagerName,
	)
	return u, err
}

func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (
			employee_id, first_name, last_name, email, password_hash, role, department, position,
			phone, address, date_of_birth, hire_date, salary, shift_id, manager_id, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		newUser.EmployeeID, newUser.FirstName, newUser.LastName, newUser.Email, newUser.PasswordHash,
		newUser.Role, newUser.Department, newUser.Position, newUser.Phone, newUser.Address,
		newUser.DateOfBirth, newUser.HireDate, newUser.Salary, newUser.ShiftID, newUser.ManagerID,
		newUser.IsActive,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "u.id = $1", id)
}

func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "u.email = $1", strings.ToLower(email))
}

func (r *userRepositoryImpl) getOne(ctx context.Context, where string, arg any) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	u, err := scanUser(q.QueryRow(ctx, "SELECT "+userColumns+userFrom+" WHERE "+where, arg))
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *userRepositoryImpl) ExistsByEmailOrEmployeeID(ctx context.Context, email, employeeID string, excludeID *string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE (email = $1 OR employee_id = $2) AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, strings.ToLower(email), employeeID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepositoryImpl) Update(ctx context.Context, u user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users SET
			first_name = $2, last_name = $3, email = $4, role = $5, department = $6, position = $7,
			phone = $8, address = $9, date_of_birth = $10, salary = $11, shift_id = $12,
			manager_id = $13, is_active = $14, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Role, u.Department, u.Position,
		u.Phone, u.Address, u.DateOfBirth, u.Salary, u.ShiftID, u.ManagerID, u.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.User{}, user.ErrUserNotFound
	}

	return r.GetByID(ctx, u.ID)
}

func (r *userRepositoryImpl) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
}

func (r *userRepositoryImpl) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at)
}

func (r *userRepositoryImpl) UpdateProfileImage(ctx context.Context, userID, path string) error {
	return r.exec(ctx, `UPDATE users SET profile_image = $2, updated_at = NOW() WHERE id = $1`, userID, path)
}

func (r *userRepositoryImpl) exec(ctx context.Context, query string, args ...any) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *userRepositoryImpl) List(ctx context.Context, filter user.UserFilter) ([]user.User, int64, error) {
	q := GetQuerier(ctx, r.db)

	var p placeholders
	where := " WHERE 1=1"
	if filter.Department != nil {
		where += " AND u.department = " + p.add(*filter.Department)
	}
	if filter.Role != nil {
		where += " AND u.role = " + p.add(*filter.Role)
	}
	if filter.IsActive != nil {
		where += " AND u.is_active = " + p.add(*filter.IsActive)
	}
	if filter.Search != nil && *filter.Search != "" {
		ph := p.add("%" + *filter.Search + "%")
		where += fmt.Sprintf(
			" AND (u.first_name ILIKE %[1]s OR u.last_name ILIKE %[1]s OR u.email ILIKE %[1]s OR u.employee_id ILIKE %[1]s)", ph)
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM users u"+where, p.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := "SELECT " + userColumns + userFrom + where +
		fmt.Sprintf(" ORDER BY u.created_at DESC LIMIT %s OFFSET %s", p.add(filter.Limit), p.add(offset))

	users, err := r.query(ctx, query, p.args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepositoryImpl) Find(ctx context.Context, uq user.Query) ([]user.User, error) {
	var p placeholders
	where := " WHERE 1=1"
	if len(uq.IDs) > 0 {
		where += " AND u.id = ANY(" + p.add(uq.IDs) + "::uuid[])"
	}
	if uq.Department != nil {
		where += " AND u.department = " + p.add(*uq.Department)
	}
	if uq.ManagerID != nil {
		where += " AND u.manager_id = " + p.add(*uq.ManagerID)
	}
	if uq.ShiftID != nil {
		where += " AND u.shift_id = " + p.add(*uq.ShiftID)
	}
	if uq.ActiveOnly {
		where += " AND u.is_active"
	}

	return r.query(ctx, "SELECT "+userColumns+userFrom+where+" ORDER BY u.first_name, u.last_name", p.args...)
}

func (r *userRepositoryImpl) query(ctx context.Context, query string, args ...any) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *userRepositoryImpl) AssignShift(ctx context.Context, shiftID string, userIDs []string) (int, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE users SET shift_id = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`,
		shiftID, userIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to assign shift: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *userRepositoryImpl) CountByShift(ctx context.Context, shiftID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE shift_id = $1`, shiftID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count shift users: %w", err)
	}
	return count, nil
}

func (r *userRepositoryImpl) Departments(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT department FROM users WHERE is_active ORDER BY department`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var departments []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}
