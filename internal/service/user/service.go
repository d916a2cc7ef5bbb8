package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	authService "github.com/cmlabs-hris/attendance-backend-go/internal/service/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
)

type UserServiceImpl struct {
	user.UserRepository
	shift.ShiftRepository
	auth.TokenRepository
	fileService file.FileService
	now         func() time.Time
}

func NewUserService(userRepository user.UserRepository, shiftRepository shift.ShiftRepository, tokenRepository auth.TokenRepository, fileService file.FileService) user.UserService {
	return &UserServiceImpl{
		UserRepository:  userRepository,
		ShiftRepository: shiftRepository,
		TokenRepository: tokenRepository,
		fileService:     fileService,
		now:             time.Now,
	}
}

// canAccess allows the user themselves and admin/hr.
func canAccess(ctx context.Context, targetID string) (user.Role, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return "", err
	}
	if callerID != targetID && role != user.RoleAdmin && role != user.RoleHR {
		return "", user.ErrInsufficientPermissions
	}
	return role, nil
}

// List implements user.UserService.
func (s *UserServiceImpl) List(ctx context.Context, filter user.UserFilter) (user.ListUserResponse, error) {
	users, total, err := s.UserRepository.List(ctx, filter)
	if err != nil {
		return user.ListUserResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	resp := user.ListUserResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Users:      make([]user.UserResponse, 0, len(users)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, user.ToResponse(u))
	}
	resp.Showing = showing(filter.Page, filter.Limit, len(users), total)
	return resp, nil
}

// Get implements user.UserService.
func (s *UserServiceImpl) Get(ctx context.Context, id string) (user.UserResponse, error) {
	if _, err := canAccess(ctx, id); err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.UserRepository.GetByID(ctx, id)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

// Create implements user.UserService.
func (s *UserServiceImpl) Create(ctx context.Context, req user.CreateUserRequest) (user.UserResponse, error) {
	exists, err := s.UserRepository.ExistsByEmailOrEmployeeID(ctx, req.Email, req.EmployeeID, nil)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return user.UserResponse{}, user.ErrUserExists
	}

	newUser := req.ToEntity(s.now())
	if err := s.checkReferences(ctx, "", newUser.ShiftID, newUser.ManagerID); err != nil {
		return user.UserResponse{}, err
	}

	newUser.PasswordHash, err = authService.HashPassword(req.Password)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.UserRepository.Create(ctx, newUser)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(created), nil
}

// Update implements user.UserService. Only admins may change the role or
// the active flag; the fields are ignored for everyone else.
func (s *UserServiceImpl) Update(ctx context.Context, req user.UpdateUserRequest) (user.UserResponse, error) {
	role, err := canAccess(ctx, req.ID)
	if err != nil {
		return user.UserResponse{}, err
	}
	if role != user.RoleAdmin {
		req.Role = nil
		req.IsActive = nil
	}

	existing, err := s.UserRepository.GetByID(ctx, req.ID)
	if err != nil {
		return user.UserResponse{}, err
	}

	if req.Email != nil && *req.Email != existing.Email {
		taken, err := s.UserRepository.ExistsByEmailOrEmployeeID(ctx, *req.Email, existing.EmployeeID, &existing.ID)
		if err != nil {
			return user.UserResponse{}, fmt.Errorf("failed to check user existence: %w", err)
		}
		if taken {
			return user.UserResponse{}, user.ErrUserExists
		}
	}

	req.Apply(&existing)
	if err := s.checkReferences(ctx, existing.ID, existing.ShiftID, existing.ManagerID); err != nil {
		return user.UserResponse{}, err
	}

	updated, err := s.UserRepository.Update(ctx, existing)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(updated), nil
}

func (s *UserServiceImpl) checkReferences(ctx context.Context, selfID string, shiftID, managerID *string) error {
	if shiftID != nil {
		if _, err := s.ShiftRepository.GetByID(ctx, *shiftID); err != nil {
			return err
		}
	}
	if managerID != nil {
		if *managerID == selfID {
			return user.ErrManagerNotFound
		}
		if _, err := s.UserRepository.GetByID(ctx, *managerID); err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return user.ErrManagerNotFound
			}
			return err
		}
	}
	return nil
}

// UploadProfileImage implements user.UserService. It returns the public URL
// of the stored image.
func (s *UserServiceImpl) UploadProfileImage(ctx context.Context, req user.UploadProfileImageRequest) (string, error) {
	if _, err := canAccess(ctx, req.UserID); err != nil {
		return "", err
	}
	if req.File == nil || req.FileHeader == nil {
		return "", user.ErrNoImageProvided
	}

	existing, err := s.UserRepository.GetByID(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	key, err := s.fileService.UploadProfileImage(ctx, req.UserID, req.File, req.FileHeader.Filename)
	if err != nil {
		return "", err
	}

	if err := s.UserRepository.UpdateProfileImage(ctx, req.UserID, key); err != nil {
		s.discard(ctx, key)
		return "", fmt.Errorf("failed to save profile image: %w", err)
	}

	if existing.ProfileImage != nil && *existing.ProfileImage != "" {
		s.discard(ctx, *existing.ProfileImage)
	}

	return s.fileService.URL(key), nil
}

func (s *UserServiceImpl) discard(ctx context.Context, key string) {
	if err := s.fileService.DeleteFile(ctx, key); err != nil {
		slog.Warn("Failed to delete profile image", "key", key, "error", err)
	}
}

// Deactivate implements user.UserService. Deactivated users keep their
// history but can no longer log in or refresh tokens.
func (s *UserServiceImpl) Deactivate(ctx context.Context, id string) error {
	existing, err := s.UserRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}

	existing.IsActive = false
	if _, err := s.UserRepository.Update(ctx, existing); err != nil {
		return err
	}
	if err := s.TokenRepository.RevokeAllForUser(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// Stats implements user.UserService.
func (s *UserServiceImpl) Stats(ctx context.Context) (user.UserStatsResponse, error) {
	users, err := s.UserRepository.Find(ctx, user.Query{})
	if err != nil {
		return user.UserStatsResponse{}, fmt.Errorf("failed to load users: %w", err)
	}

	stats := user.UserStatsResponse{Total: len(users)}
	byRole := make(map[string]int)
	byDepartment := make(map[string]int)
	for _, u := range users {
		if !u.IsActive {
			stats.Inactive++
			continue
		}
		stats.Active++
		byRole[string(u.Role)]++
		byDepartment[u.Department]++
	}
	stats.ByRole = countsByKey(byRole)
	stats.ByDepartment = countsByKey(byDepartment)
	return stats, nil
}

// countsByKey sorts by count, highest first, then by key.
func countsByKey(m map[string]int) []user.CountByKey {
	out := make([]user.CountByKey, 0, len(m))
	for k, v := range m {
		out = append(out, user.CountByKey{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func showing(page, limit, count int, total int64) string {
	if count == 0 {
		return fmt.Sprintf("0 of %d", total)
	}
	from := (page-1)*limit + 1
	return fmt.Sprintf("%d-%d of %d", from, from+count-1, total)
}
