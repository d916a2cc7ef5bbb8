package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

const shiftColumns = `
	s.id, s.name, s.description, s.start_time, s.end_time, s.working_days, s.break_duration,
	s.late_threshold, s.overtime_threshold, s.is_active, s.color, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM users u WHERE u.shift_id = s.id)::int
`

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

func scanShift(row rowScanner) (shift.Shift, error) {
	var s shift.Shift
	var assigned int
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.StartTime, &s.EndTime, &s.WorkingDays, &s.BreakDurationMinutes,
		&s.LateThresholdMinutes, &s.OvertimeThresholdMinutes, &s.IsActive, &s.Color, &s.CreatedAt, &s.UpdatedAt,
		&assigned,
	)
	s.AssignedUsers = &assigned
	return s, err
}

func (r *shiftRepositoryImpl) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (
			name, description, start_time, end_time, working_days, break_duration,
			late_threshold, overtime_threshold, is_active, color
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		s.Name, s.Description, s.StartTime, s.EndTime, s.WorkingDays, s.BreakDurationMinutes,
		s.LateThresholdMinutes, s.OvertimeThresholdMinutes, s.IsActive, s.Color,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	return r.getOne(ctx, "s.id = $1", id)
}

func (r *shiftRepositoryImpl) GetByName(ctx context.Context, name string) (shift.Shift, error) {
	return r.getOne(ctx, "s.name = $1", name)
}

func (r *shiftRepositoryImpl) getOne(ctx context.Context, where string, arg any) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanShift(q.QueryRow(ctx, "SELECT "+shiftColumns+" FROM shifts s WHERE "+where, arg))
	if err != nil {
		if isNoRows(err) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return s, nil
}

func (r *shiftRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + shiftColumns + " FROM shifts s"
	if activeOnly {
		query += " WHERE s.is_active"
	}
	query += " ORDER BY s.start_time, s.name"

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

func (r *shiftRepositoryImpl) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts SET
			name = $2, description = $3, start_time = $4, end_time = $5, working_days = $6,
			break_duration = $7, late_threshold = $8, overtime_threshold = $9, is_active = $10,
			color = $11, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		s.ID, s.Name, s.Description, s.StartTime, s.EndTime, s.WorkingDays,
		s.BreakDurationMinutes, s.LateThresholdMinutes, s.OvertimeThresholdMinutes, s.IsActive, s.Color,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		return shift.Shift{}, fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.Shift{}, shift.ErrShiftNotFound
	}

	return r.GetByID(ctx, s.ID)
}

func (r *shiftRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}
