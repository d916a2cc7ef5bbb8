package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
)

const autoCloseNote = "Automatically checked out at the end of the shift"

type AttendanceServiceImpl struct {
	db database.Transactor
	attendance.AttendanceRepository
	user.UserRepository
	shift.ShiftRepository
	leave.LeaveRepository
	fileService file.FileService
	events      sse.Publisher
	geofence    config.GeofenceConfig
	loc         *time.Location
	now         func() time.Time
}

func NewAttendanceService(
	db database.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	userRepository user.UserRepository,
	shiftRepository shift.ShiftRepository,
	leaveRepository leave.LeaveRepository,
	fileService file.FileService,
	events sse.Publisher,
	geofence config.GeofenceConfig,
	loc *time.Location,
) *AttendanceServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		db:                   db,
		AttendanceRepository: attendanceRepository,
		UserRepository:       userRepository,
		ShiftRepository:      shiftRepository,
		LeaveRepository:      leaveRepository,
		fileService:          fileService,
		events:               events,
		geofence:             geofence,
		loc:                  loc,
		now:                  time.Now,
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

func (s *AttendanceServiceImpl) clock() time.Time {
	return s.now().In(s.loc)
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	location := req.Location()
	if s.geofence.Enabled {
		if location == nil {
			return attendance.AttendanceResponse{}, attendance.ErrLocationRequired
		}
		if !utils.WithinRadius(*location.Latitude, *location.Longitude, s.geofence.Latitude, s.geofence.Longitude, s.geofence.RadiusMeters) {
			return attendance.AttendanceResponse{}, attendance.ErrOutsideAllowedRadius
		}
	}

	u, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if u.ShiftID == nil {
		return attendance.AttendanceResponse{}, shift.ErrNoShiftAssigned
	}
	sh, err := s.ShiftRepository.GetByID(ctx, *u.ShiftID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock()
	date := attendance.DateOnly(now, s.loc)

	image, err := s.uploadPhoto(ctx, userID, date, req.File, req.FileHeader)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var result attendance.Attendance
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		// An overnight shift started yesterday is still the current day.
		current, _, err := s.currentDay(ctx, userID, now)
		if err != nil {
			return err
		}
		if current != nil && current.HasCheckedIn() && !current.HasCheckedOut() {
			return attendance.ErrAlreadyCheckedIn
		}

		existing, err := s.AttendanceRepository.GetByUserAndDate(ctx, userID, date)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		// An absence recorded earlier in the day is turned into a check-in.
		day := &attendance.Attendance{UserID: userID, Date: date, ShiftID: &sh.ID}
		if existing != nil {
			day = existing
			day.ShiftID = &sh.ID
		}

		if err := attendance.RecordCheckIn(day, now, sh); err != nil {
			return err
		}
		setCheckPoint(&day.CheckIn, location, image, req.IPAddress, req.Device)

		if existing == nil {
			result, err = s.AttendanceRepository.Create(ctx, *day)
		} else {
			result, err = s.AttendanceRepository.Update(ctx, *day)
		}
		return err
	})
	if err != nil {
		s.discard(ctx, image)
		return attendance.AttendanceResponse{}, err
	}

	s.publish("checkin", result, now)
	return attendance.ToResponse(result), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock()
	image, err := s.uploadPhoto(ctx, userID, attendance.DateOnly(now, s.loc), req.File, req.FileHeader)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	result, err := s.mutate(ctx, userID, now, attendance.ErrNotCheckedIn, func(day *attendance.Attendance, sh shift.Shift) error {
		if err := attendance.RecordCheckOut(day, now, sh); err != nil {
			return err
		}
		setCheckPoint(&day.CheckOut, req.Location(), image, req.IPAddress, req.Device)
		return nil
	})
	if err != nil {
		s.discard(ctx, image)
		return attendance.AttendanceResponse{}, err
	}

	s.publish("checkout", result, now)
	return attendance.ToResponse(result), nil
}

// StartBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.StartBreakRequest) (attendance.BreakResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	now := s.clock()
	var started attendance.Break
	result, err := s.mutate(ctx, userID, now, attendance.ErrCheckInRequired, func(day *attendance.Attendance, _ shift.Shift) error {
		if day.HasCheckedOut() {
			return attendance.ErrAlreadyCheckedOut
		}
		b, err := attendance.StartBreak(day, now, attendance.BreakType(req.Type), req.Notes)
		started = b
		return err
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	s.publish("break_start", result, now)
	return attendance.ToBreakResponse(started), nil
}

// EndBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.BreakResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	now := s.clock()
	var ended attendance.Break
	result, err := s.mutate(ctx, userID, now, attendance.ErrNoActiveBreak, func(day *attendance.Attendance, sh shift.Shift) error {
		b, err := attendance.EndBreak(day, now, sh)
		ended = b
		return err
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	s.publish("break_end", result, now)
	return attendance.ToBreakResponse(ended), nil
}

// mutate loads the caller's current day, applies fn and writes the result
// back in one transaction. missing is returned when there is no day to change.
func (s *AttendanceServiceImpl) mutate(ctx context.Context, userID string, now time.Time, missing error, fn func(day *attendance.Attendance, sh shift.Shift) error) (attendance.Attendance, error) {
	var result attendance.Attendance
	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		day, sh, err := s.currentDay(ctx, userID, now)
		if err != nil {
			return err
		}
		if day == nil {
			return missing
		}

		if err := fn(day, sh); err != nil {
			return err
		}

		result, err = s.AttendanceRepository.Update(ctx, *day)
		return err
	})
	return result, err
}

// currentDay returns the record the user is working on: today's, or
// yesterday's when it belongs to an overnight shift that is still open.
func (s *AttendanceServiceImpl) currentDay(ctx context.Context, userID string, now time.Time) (*attendance.Attendance, shift.Shift, error) {
	today := attendance.DateOnly(now, s.loc)

	day, err := s.AttendanceRepository.GetByUserAndDate(ctx, userID, today)
	if err != nil {
		return nil, shift.Shift{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if day != nil && day.HasCheckedIn() {
		sh, err := s.shiftOf(ctx, day)
		return day, sh, err
	}

	prev, err := s.AttendanceRepository.GetByUserAndDate(ctx, userID, today.AddDate(0, 0, -1))
	if err != nil {
		return nil, shift.Shift{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if prev != nil && prev.HasCheckedIn() && !prev.HasCheckedOut() {
		sh, err := s.shiftOf(ctx, prev)
		if err != nil {
			return nil, shift.Shift{}, err
		}
		if sh.IsOvernight() {
			return prev, sh, nil
		}
	}

	if day == nil {
		return nil, shift.Shift{}, nil
	}
	sh, err := s.shiftOf(ctx, day)
	return day, sh, err
}

// shiftOf returns the shift the record was taken against. Records without
// one, or whose shift was deleted, use the zero shift and its defaults.
func (s *AttendanceServiceImpl) shiftOf(ctx context.Context, a *attendance.Attendance) (shift.Shift, error) {
	if a.ShiftID == nil {
		return shift.Shift{}, nil
	}
	sh, err := s.ShiftRepository.GetByID(ctx, *a.ShiftID)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return shift.Shift{}, nil
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return sh, nil
}

func setCheckPoint(c *attendance.CheckPoint, location *attendance.Location, image *string, ip, device string) {
	if location != nil {
		c.Location = *location
	}
	c.Image = image
	if ip != "" {
		c.IPAddress = &ip
	}
	if device != "" {
		c.Device = &device
	}
}

func (s *AttendanceServiceImpl) uploadPhoto(ctx context.Context, userID string, date time.Time, f multipart.File, header *multipart.FileHeader) (*string, error) {
	if f == nil || header == nil {
		return nil, nil
	}
	key, err := s.fileService.UploadAttendancePhoto(ctx, userID, date, f, header.Filename)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *AttendanceServiceImpl) discard(ctx context.Context, key *string) {
	if key == nil {
		return
	}
	if err := s.fileService.DeleteFile(ctx, *key); err != nil {
		slog.Warn("Failed to delete orphaned attendance photo", "key", *key, "error", err)
	}
}

func (s *AttendanceServiceImpl) publish(action string, a attendance.Attendance, at time.Time) {
	if s.events == nil {
		return
	}
	s.events.Publish(sse.TopicAttendance, sse.Event{
		Event: action,
		Data: dashboard.Activity{
			UserID:     a.UserID,
			UserName:   a.UserName,
			EmployeeID: a.EmployeeCode,
			Action:     action,
			Time:       at.Format(time.RFC3339),
			IsLate:     a.IsLate,
		},
		At: at,
	})
}

// GetToday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context) (attendance.TodayResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	u, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	var resp attendance.TodayResponse
	if u.ShiftID != nil {
		sh, err := s.ShiftRepository.GetByID(ctx, *u.ShiftID)
		if err != nil && !errors.Is(err, shift.ErrShiftNotFound) {
			return attendance.TodayResponse{}, fmt.Errorf("failed to get shift: %w", err)
		}
		if err == nil {
			shiftResp := shift.ToResponse(sh)
			resp.Shift = &shiftResp
		}
	}

	day, _, err := s.currentDay(ctx, userID, s.clock())
	if err != nil {
		return attendance.TodayResponse{}, err
	}
	if day == nil {
		return resp, nil
	}

	dayResp := attendance.ToResponse(*day)
	resp.Attendance = &dayResp
	resp.HasCheckedIn = day.HasCheckedIn()
	resp.HasCheckedOut = day.HasCheckedOut()
	if b := day.ActiveBreak(); b != nil {
		br := attendance.ToBreakResponse(*b)
		resp.ActiveBreak = &br
	}
	return resp, nil
}

// GetUserAttendance implements attendance.AttendanceService. Users see their
// own records, admin and hr everyone's, managers their direct reports'.
func (s *AttendanceServiceImpl) GetUserAttendance(ctx context.Context, filter attendance.UserAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	if callerID != filter.UserID && role != user.RoleAdmin && role != user.RoleHR {
		if role != user.RoleManager {
			return attendance.ListAttendanceResponse{}, attendance.ErrNotAllowed
		}
		target, err := s.UserRepository.GetByID(ctx, filter.UserID)
		if err != nil {
			return attendance.ListAttendanceResponse{}, err
		}
		if target.ManagerID == nil || *target.ManagerID != callerID {
			return attendance.ListAttendanceResponse{}, attendance.ErrNotAllowed
		}
	}

	return s.list(ctx, filter.ToFilter())
}

// ListAttendance implements attendance.AttendanceService. Managers are
// limited to their team.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if role == user.RoleManager {
		filter.ManagerID = &callerID
	}
	return s.list(ctx, filter)
}

func (s *AttendanceServiceImpl) list(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	records, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := attendance.ListAttendanceResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Showing:    showing(filter.Page, filter.Limit, len(records), total),
		Attendance: make([]attendance.AttendanceResponse, 0, len(records)),
	}
	for _, a := range records {
		resp.Attendance = append(resp.Attendance, attendance.ToResponse(a))
	}
	return resp, nil
}

// UpdateAttendance implements attendance.AttendanceService. A time
// correction counts as an approval of the record.
func (s *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	callerID, _, err := jwt.Caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var result attendance.Attendance
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		day, err := s.AttendanceRepository.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		corrected := false
		if req.CheckInTime != nil {
			t, _ := time.Parse(time.RFC3339, *req.CheckInTime)
			t = t.In(s.loc)
			day.CheckIn.Time = &t
			corrected = true
		}
		if req.CheckOutTime != nil {
			t, _ := time.Parse(time.RFC3339, *req.CheckOutTime)
			t = t.In(s.loc)
			day.CheckOut.Time = &t
			corrected = true
		}
		if day.HasCheckedOut() && !day.HasCheckedIn() {
			return attendance.ErrCheckInRequired
		}
		if day.HasCheckedIn() && day.HasCheckedOut() && day.CheckOut.Time.Before(*day.CheckIn.Time) {
			return attendance.ErrCheckOutBeforeCheckIn
		}

		if corrected {
			sh, err := s.shiftOf(ctx, &day)
			if err != nil {
				return err
			}
			attendance.ApplyCorrection(&day, sh)
		}
		if req.Status != nil {
			day.Status = attendance.Status(*req.Status)
		}
		if req.Notes != nil {
			day.Notes = req.Notes
		}
		if req.Approve || corrected {
			now := s.clock()
			day.ApprovedBy = &callerID
			day.ApprovedAt = &now
		}

		result, err = s.AttendanceRepository.Update(ctx, day)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return attendance.ToResponse(result), nil
}

// AutoCloseOpen implements attendance.AttendanceService. Each record is
// checked out at its shift's scheduled end, or at the end of its day when
// it has no shift, and any open break is ended at the same instant.
func (s *AttendanceServiceImpl) AutoCloseOpen(ctx context.Context, before time.Time) (int, error) {
	open, err := s.AttendanceRepository.ListOpen(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to list open attendances: %w", err)
	}

	closed := 0
	for _, a := range open {
		day := a
		sh, err := s.shiftOf(ctx, &day)
		if err != nil {
			return closed, err
		}

		closeAt := endOfDay(day.Date, s.loc)
		if day.ShiftID != nil && sh.ID != "" {
			closeAt = sh.EndOn(day.Date, s.loc)
		}
		if closeAt.After(s.clock()) {
			// overnight shift still running
			continue
		}
		if closeAt.Before(*day.CheckIn.Time) {
			closeAt = *day.CheckIn.Time
		}

		if day.ActiveBreak() != nil {
			if _, err := attendance.EndBreak(&day, closeAt, sh); err != nil {
				return closed, err
			}
		}
		if err := attendance.RecordCheckOut(&day, closeAt, sh); err != nil {
			return closed, err
		}
		if day.Notes == nil {
			note := autoCloseNote
			day.Notes = &note
		}

		if _, err := s.AttendanceRepository.Update(ctx, day); err != nil {
			if errors.Is(err, attendance.ErrConcurrentUpdate) {
				slog.Warn("Skipped auto-close of attendance changed concurrently", "attendance_id", day.ID)
				continue
			}
			return closed, fmt.Errorf("failed to close attendance %s: %w", day.ID, err)
		}
		closed++
	}
	return closed, nil
}

// MarkAbsent implements attendance.AttendanceService. Users hired after
// date, without a shift, or whose shift does not work on that weekday are
// skipped.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, date time.Time) (int, error) {
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)

	users, err := s.UserRepository.Find(ctx, user.Query{ActiveOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to load users: %w", err)
	}

	records, err := s.AttendanceRepository.ListRange(ctx, attendance.RangeQuery{From: date, To: date})
	if err != nil {
		return 0, fmt.Errorf("failed to load attendance: %w", err)
	}
	recorded := make(map[string]struct{}, len(records))
	for _, a := range records {
		recorded[a.UserID] = struct{}{}
	}

	leaves, err := s.LeaveRepository.ListRange(ctx, leave.RangeQuery{
		From:     date,
		To:       date,
		Statuses: []leave.Status{leave.StatusApproved},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load leaves: %w", err)
	}
	onLeave := make(map[string]struct{}, len(leaves))
	for _, l := range leaves {
		onLeave[l.UserID] = struct{}{}
	}

	shifts := make(map[string]shift.Shift)
	marked := 0
	for _, u := range users {
		if u.ShiftID == nil || dayAfter(u.HireDate, date) {
			continue
		}
		if _, ok := recorded[u.ID]; ok {
			continue
		}
		if _, ok := onLeave[u.ID]; ok {
			continue
		}

		sh, ok := shifts[*u.ShiftID]
		if !ok {
			sh, err = s.ShiftRepository.GetByID(ctx, *u.ShiftID)
			if err != nil {
				return marked, fmt.Errorf("failed to get shift: %w", err)
			}
			shifts[*u.ShiftID] = sh
		}
		if !sh.WorksOn(date.Weekday()) {
			continue
		}

		_, err := s.AttendanceRepository.Create(ctx, attendance.Attendance{
			UserID:  u.ID,
			Date:    date,
			ShiftID: u.ShiftID,
			Status:  attendance.StatusAbsent,
		})
		if err != nil {
			if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
				continue
			}
			return marked, fmt.Errorf("failed to mark %s absent: %w", u.ID, err)
		}
		marked++
	}
	return marked, nil
}

func endOfDay(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 0, 0, loc)
}

// dayAfter reports whether a falls on a later calendar day than b.
func dayAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).After(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

func showing(page, limit, count int, total int64) string {
	if count == 0 {
		return fmt.Sprintf("0 of %d", total)
	}
	from := (page-1)*limit + 1
	return fmt.Sprintf("%d-%d of %d", from, from+count-1, total)
}
