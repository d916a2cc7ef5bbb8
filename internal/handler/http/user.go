package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const maxProfileUpload = 6 << 20

type UserHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	UploadProfileImage(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type userHandlerImpl struct {
	userService user.UserService
}

func NewUserHandler(userService user.UserService) UserHandler {
	return &userHandlerImpl{userService: userService}
}

// List handles GET /users
func (h *userHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := user.UserFilter{
		Department: queryString(r, "department"),
		Role:       queryString(r, "role"),
		IsActive:   queryBool(r, "is_active"),
		Search:     queryString(r, "search"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 10),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.userService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Paginated(w, result)
}

// Get handles GET /users/{id}
func (h *userHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.userService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Create handles POST /users
func (h *userHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.userService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("User created", "user_id", result.ID, "role", result.Role)
	response.Created(w, "User created successfully", result)
}

// Update handles PUT /users/{id}
func (h *userHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req user.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.userService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "User updated successfully", result)
}

// UploadProfileImage handles POST /users/{id}/profile-image
func (h *userHandlerImpl) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProfileUpload); err != nil {
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	req := user.UploadProfileImageRequest{UserID: chi.URLParam(r, "id")}
	file, fileHeader, err := r.FormFile("profileImage")
	if err != nil && err != http.ErrMissingFile {
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	if file != nil {
		defer file.Close()
		req.File = file
		req.FileHeader = fileHeader
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	path, err := h.userService.UploadProfileImage(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Profile image uploaded successfully", map[string]string{"profile_image": path})
}

// Deactivate handles DELETE /users/{id}
func (h *userHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "User deactivated successfully", nil)
}

// Stats handles GET /users/stats/overview
func (h *userHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.userService.Stats(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
