package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

const leaveColumns = `
	l.id, l.user_id, l.type, l.start_date, l.end_date, l.total_days::float8, l.reason, l.status,
	l.applied_date, l.reviewed_by, l.reviewed_at, l.review_comments, l.attachments, l.is_half_day,
	l.half_day_period, l.contact_during_leave, l.handover_notes, l.replacement_employee_id,
	l.created_at, l.updated_at,
	TRIM(u.first_name || ' ' || u.last_name), u.employee_id, u.department, u.position,
	NULLIF(TRIM(rv.first_name || ' ' || rv.last_name), ''),
	NULLIF(TRIM(rp.first_name || ' ' || rp.last_name), '')
`

const leaveFrom = `
	FROM leaves l
	JOIN users u ON u.id = l.user_id
	LEFT JOIN users rv ON rv.id = l.reviewed_by
	LEFT JOIN users rp ON rp.id = l.replacement_employee_id
`

type leaveRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepositoryImpl{db: db}
}

func scanLeave(row rowScanner) (leave.Leave, error) {
	var l leave.Leave
	err := row.Scan(
		&l.ID, &l.UserID, &l.Type, &l.StartDate, &l.EndDate, &l.TotalDays, &l.Reason, &l.Status,
		&l.AppliedDate, &l.ReviewedBy, &l.ReviewedAt, &l.ReviewComments, &l.Attachments, &l.IsHalfDay,
		&l.HalfDayPeriod, &l.ContactDuringLeave, &l.HandoverNotes, &l.ReplacementEmployeeID,
		&l.CreatedAt, &l.UpdatedAt,
		&l.UserName, &l.EmployeeCode, &l.UserDepartment, &l.UserPosition,
		&l.ReviewerName, &l.ReplacementName,
	)
	return l, err
}

func attachmentsOrEmpty(a []leave.Attachment) []leave.Attachment {
	if a == nil {
		return []leave.Attachment{}
	}
	return a
}

func (r *leaveRepositoryImpl) Create(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leaves (
			user_id, type, start_date, end_date, total_days, reason, status, applied_date,
			attachments, is_half_day, half_day_period, contact_during_leave, handover_notes,
			replacement_employee_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		l.UserID, l.Type, l.StartDate, l.EndDate, l.TotalDays, l.Reason, l.Status, l.AppliedDate,
		attachmentsOrEmpty(l.Attachments), l.IsHalfDay, l.HalfDayPeriod, l.ContactDuringLeave, l.HandoverNotes,
		l.ReplacementEmployeeID,
	).Scan(&id)
	if err != nil {
		return leave.Leave{}, fmt.Errorf("failed to create leave: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *leaveRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLeave(q.QueryRow(ctx, "SELECT "+leaveColumns+leaveFrom+" WHERE l.id = $1", id))
	if err != nil {
		if isNoRows(err) {
			return leave.Leave{}, leave.ErrLeaveNotFound
		}
		return leave.Leave{}, fmt.Errorf("failed to get leave: %w", err)
	}
	return l, nil
}

// Update writes the review and cancellation fields; the request itself is immutable.
func (r *leaveRepositoryImpl) Update(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leaves SET
			status = $2, reviewed_by = $3, reviewed_at = $4, review_comments = $5,
			attachments = $6, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, l.ID, l.Status, l.ReviewedBy, l.ReviewedAt, l.ReviewComments, attachmentsOrEmpty(l.Attachments))
	if err != nil {
		return leave.Leave{}, fmt.Errorf("failed to update leave: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}

	return r.GetByID(ctx, l.ID)
}

func (r *leaveRepositoryImpl) List(ctx context.Context, filter leave.LeaveFilter) ([]leave.Leave, int64, error) {
	q := GetQuerier(ctx, r.db)

	var p placeholders
	where := " WHERE 1=1"
	if filter.UserID != nil {
		where += " AND l.user_id = " + p.add(*filter.UserID)
	}
	if filter.Status != nil {
		where += " AND l.status = " + p.add(*filter.Status)
	}
	if filter.Type != nil {
		where += " AND l.type = " + p.add(*filter.Type)
	}
	if filter.Department != nil {
		where += " AND u.department = " + p.add(*filter.Department)
	}
	if filter.StartDate != nil {
		where += " AND l.start_date >= " + p.add(*filter.StartDate) + "::date"
	}
	if filter.EndDate != nil {
		where += " AND l.start_date <= " + p.add(*filter.EndDate) + "::date"
	}
	if filter.Year > 0 {
		where += " AND EXTRACT(YEAR FROM l.start_date) = " + p.add(filter.Year)
	}
	if filter.ManagerID != nil {
		where += " AND u.manager_id = " + p.add(*filter.ManagerID)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM leaves l JOIN users u ON u.id = l.user_id" + where
	if err := q.QueryRow(ctx, countQuery, p.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leaves: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := "SELECT " + leaveColumns + leaveFrom + where +
		fmt.Sprintf(" ORDER BY l.applied_date DESC LIMIT %s OFFSET %s", p.add(filter.Limit), p.add(offset))

	leaves, err := r.query(ctx, query, p.args...)
	if err != nil {
		return nil, 0, err
	}
	return leaves, total, nil
}

func (r *leaveRepositoryImpl) HasOverlap(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM leaves
			WHERE user_id = $1 AND status IN ('pending', 'approved')
			  AND start_date <= $3 AND end_date >= $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, userID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

func (r *leaveRepositoryImpl) ListRange(ctx context.Context, rq leave.RangeQuery) ([]leave.Leave, error) {
	var p placeholders
	where := fmt.Sprintf(" WHERE l.start_date <= %s AND l.end_date >= %s", p.add(rq.To), p.add(rq.From))
	if rq.UserID != nil {
		where += " AND l.user_id = " + p.add(*rq.UserID)
	}
	if rq.Department != nil {
		where += " AND u.department = " + p.add(*rq.Department)
	}
	if len(rq.Statuses) > 0 {
		statuses := make([]string, len(rq.Statuses))
		for i, s := range rq.Statuses {
			statuses[i] = string(s)
		}
		where += " AND l.status = ANY(" + p.add(statuses) + ")"
	}

	return r.query(ctx, "SELECT "+leaveColumns+leaveFrom+where+" ORDER BY l.start_date, l.applied_date", p.args...)
}

func (r *leaveRepositoryImpl) query(ctx context.Context, query string, args ...any) ([]leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	defer rows.Close()

	var leaves []leave.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave: %w", err)
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaves: %w", err)
	}
	return leaves, nil
}
