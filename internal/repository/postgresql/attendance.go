package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

const attendanceColumns = `
	a.id, a.user_id, a.date, a.shift_id,
	a.check_in_time, a.check_in_latitude, a.check_in_longitude, a.check_in_address,
	a.check_in_image, a.check_in_ip, a.check_in_device,
	a.check_out_time, a.check_out_latitude, a.check_out_longitude, a.check_out_address,
	a.check_out_image, a.check_out_ip, a.check_out_device,
	a.breaks, a.working_minutes, a.overtime_minutes, a.is_late, a.late_minutes, a.status,
	a.notes, a.approved_by, a.approved_at, a.version, a.created_at, a.updated_at,
	TRIM(u.first_name || ' ' || u.last_name), u.employee_id, u.department, s.name
`

const attendanceFrom = `
	FROM attendances a
	JOIN users u ON u.id = a.user_id
	LEFT JOIN shifts s ON s.id = a.shift_id
`

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func scanAttendance(row rowScanner) (attendance.Attendance, error) {
	var a attendance.Attendance
	err := row.Scan(
		&a.ID, &a.UserID, &a.Date, &a.ShiftID,
		&a.CheckIn.Time, &a.CheckIn.Location.Latitude, &a.CheckIn.Location.Longitude, &a.CheckIn.Location.Address,
		&a.CheckIn.Image, &a.CheckIn.IPAddress, &a.CheckIn.Device,
		&a.CheckOut.Time, &a.CheckOut.Location.Latitude, &a.CheckOut.Location.Longitude, &a.CheckOut.Location.Address,
		&a.CheckOut.Image, &a.CheckOut.IPAddress, &a.CheckOut.Device,
		&a.Breaks, &a.WorkingMinutes, &a.OvertimeMinutes, &a.IsLate, &a.LateMinutes, &a.Status,
		&a.Notes, &a.ApprovedBy, &a.ApprovedAt, &a.Version, &a.CreatedAt, &a.UpdatedAt,
		&a.UserName, &a.EmployeeCode, &a.UserDepartment, &a.ShiftName,
	)
	return a, err
}

func breaksOrEmpty(b []attendance.Break) []attendance.Break {
	if b == nil {
		return []attendance.Break{}
	}
	return b
}

func (r *attendanceRepositoryImpl) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances (
			user_id, date, shift_id,
			check_in_time, check_in_latitude, check_in_longitude, check_in_address,
			check_in_image, check_in_ip, check_in_device,
			breaks, working_minutes, overtime_minutes, is_late, late_minutes, status, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		a.UserID, a.Date, a.ShiftID,
		a.CheckIn.Time, a.CheckIn.Location.Latitude, a.CheckIn.Location.Longitude, a.CheckIn.Location.Address,
		a.CheckIn.Image, a.CheckIn.IPAddress, a.CheckIn.Device,
		breaksOrEmpty(a.Breaks), a.WorkingMinutes, a.OvertimeMinutes, a.IsLate, a.LateMinutes, a.Status, a.Notes,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAttendance(q.QueryRow(ctx, "SELECT "+attendanceColumns+attendanceFrom+" WHERE a.id = $1", id))
	if err != nil {
		if isNoRows(err) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

func (r *attendanceRepositoryImpl) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + attendanceColumns + attendanceFrom + " WHERE a.user_id = $1 AND a.date = $2"
	a, err := scanAttendance(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &a, nil
}

func (r *attendanceRepositoryImpl) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendances SET
			shift_id = $3,
			check_in_time = $4, check_in_latitude = $5, check_in_longitude = $6, check_in_address = $7,
			check_in_image = $8, check_in_ip = $9, check_in_device = $10,
			check_out_time = $11, check_out_latitude = $12, check_out_longitude = $13, check_out_address = $14,
			check_out_image = $15, check_out_ip = $16, check_out_device = $17,
			breaks = $18, working_minutes = $19, overtime_minutes = $20, is_late = $21, late_minutes = $22,
			status = $23, notes = $24, approved_by = $25, approved_at = $26,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		a.ID, a.Version, a.ShiftID,
		a.CheckIn.Time, a.CheckIn.Location.Latitude, a.CheckIn.Location.Longitude, a.CheckIn.Location.Address,
		a.CheckIn.Image, a.CheckIn.IPAddress, a.CheckIn.Device,
		a.CheckOut.Time, a.CheckOut.Location.Latitude, a.CheckOut.Location.Longitude, a.CheckOut.Location.Address,
		a.CheckOut.Image, a.CheckOut.IPAddress, a.CheckOut.Device,
		breaksOrEmpty(a.Breaks), a.WorkingMinutes, a.OvertimeMinutes, a.IsLate, a.LateMinutes,
		a.Status, a.Notes, a.ApprovedBy, a.ApprovedAt,
	).Scan(&a.Version, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			if _, getErr := r.GetByID(ctx, a.ID); getErr != nil {
				return attendance.Attendance{}, getErr
			}
			return attendance.Attendance{}, attendance.ErrConcurrentUpdate
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return a, nil
}

func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	var p placeholders
	where := " WHERE 1=1"
	if filter.Date != nil {
		where += " AND a.date = " + p.add(*filter.Date) + "::date"
	}
	if filter.StartDate != nil {
		where += " AND a.date >= " + p.add(*filter.StartDate) + "::date"
	}
	if filter.EndDate != nil {
		where += " AND a.date <= " + p.add(*filter.EndDate) + "::date"
	}
	if filter.UserID != nil {
		where += " AND a.user_id = " + p.add(*filter.UserID)
	}
	if filter.Department != nil {
		where += " AND u.department = " + p.add(*filter.Department)
	}
	if filter.Status != nil {
		where += " AND a.status = " + p.add(*filter.Status)
	}
	if filter.ManagerID != nil {
		where += " AND u.manager_id = " + p.add(*filter.ManagerID)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM attendances a JOIN users u ON u.id = a.user_id" + where
	if err := q.QueryRow(ctx, countQuery, p.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	orderBy := "a.date DESC, a.check_in_time DESC NULLS LAST"
	if filter.SortBy != "" {
		column := map[string]string{
			"date":          "a.date",
			"check_in_time": "a.check_in_time",
			"status":        "a.status",
		}[filter.SortBy]
		direction := "DESC"
		if filter.SortOrder == "asc" {
			direction = "ASC"
		}
		orderBy = column + " " + direction + ", a.id"
	}

	offset := (filter.Page - 1) * filter.Limit
	query := "SELECT " + attendanceColumns + attendanceFrom + where +
		fmt.Sprintf(" ORDER BY %s LIMIT %s OFFSET %s", orderBy, p.add(filter.Limit), p.add(offset))

	records, err := r.query(ctx, query, p.args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *attendanceRepositoryImpl) ListRange(ctx context.Context, rq attendance.RangeQuery) ([]attendance.Attendance, error) {
	var p placeholders
	where := fmt.Sprintf(" WHERE a.date BETWEEN %s AND %s", p.add(rq.From), p.add(rq.To))
	if rq.UserID != nil {
		where += " AND a.user_id = " + p.add(*rq.UserID)
	}
	if rq.Department != nil {
		where += " AND u.department = " + p.add(*rq.Department)
	}

	return r.query(ctx, "SELECT "+attendanceColumns+attendanceFrom+where+" ORDER BY a.date, u.first_name, u.last_name", p.args...)
}

func (r *attendanceRepositoryImpl) ListOpen(ctx context.Context, before time.Time) ([]attendance.Attendance, error) {
	query := "SELECT " + attendanceColumns + attendanceFrom + `
		WHERE a.check_in_time IS NOT NULL AND a.check_out_time IS NULL AND a.date < $1
		ORDER BY a.date`
	return r.query(ctx, query, before)
}

func (r *attendanceRepositoryImpl) query(ctx context.Context, query string, args ...any) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return records, nil
}
