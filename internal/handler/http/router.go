package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups every route handler the router mounts.
type Handlers struct {
	Auth       AuthHandler
	User       UserHandler
	Shift      ShiftHandler
	Attendance AttendanceHandler
	Leave      LeaveHandler
	Dashboard  DashboardHandler
	Report     ReportHandler
}

func NewRouter(cfg *config.Config, log *slog.Logger, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(log, logger.RequestLoggerOptions(cfg.App)))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.BasePath)))
	r.Handle("/uploads/*", uploads)

	staff := middleware.RequireRoles(user.RoleAdmin, user.RoleHR)
	reviewers := middleware.RequireRoles(user.RoleAdmin, user.RoleHR, user.RoleManager)
	adminOnly := middleware.RequireRoles(user.RoleAdmin)

	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Get("/me", h.Auth.Me)
				r.Put("/change-password", h.Auth.ChangePassword)
				r.Get("/sse-token", h.Auth.SSEToken)
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			// EventSource authenticates with a short-lived token in the query.
			r.Get("/events", h.Dashboard.Events)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Get("/overview", h.Dashboard.Overview)
				r.With(reviewers).Get("/analytics/attendance", h.Dashboard.AttendanceAnalytics)
				r.With(reviewers).Get("/analytics/leaves", h.Dashboard.LeaveAnalytics)
				r.With(staff).Get("/realtime", h.Dashboard.Realtime)
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			authenticated(r)

			r.Route("/users", func(r chi.Router) {
				r.With(staff).Get("/", h.User.List)
				r.With(staff).Post("/", h.User.Create)
				r.With(staff).Get("/stats/overview", h.User.Stats)

				r.Route("/{id}", func(r chi.Router) {
					ownerOrStaff := middleware.RequireOwnerOrRoles("id", user.RoleAdmin, user.RoleHR)
					r.With(ownerOrStaff).Get("/", h.User.Get)
					r.With(ownerOrStaff).Put("/", h.User.Update)
					r.With(ownerOrStaff).Post("/profile-image", h.User.UploadProfileImage)
					r.With(adminOnly).Delete("/", h.User.Deactivate)
				})
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.Shift.List)
				r.With(staff).Post("/", h.Shift.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Shift.Get)
					r.With(staff).Put("/", h.Shift.Update)
					r.With(adminOnly).Delete("/", h.Shift.Delete)
					r.With(staff).Post("/assign-users", h.Shift.AssignUsers)
					r.With(reviewers).Get("/stats", h.Shift.Stats)
				})
			})

			ownerOrReviewer := middleware.RequireOwnerOrRoles("userId", user.RoleAdmin, user.RoleHR, user.RoleManager)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/checkin", h.Attendance.CheckIn)
				r.Post("/checkout", h.Attendance.CheckOut)
				r.Post("/break/start", h.Attendance.StartBreak)
				r.Post("/break/end", h.Attendance.EndBreak)
				r.Get("/today", h.Attendance.Today)
				r.With(ownerOrReviewer).Get("/user/{userId}", h.Attendance.UserAttendance)
				r.With(reviewers).Get("/", h.Attendance.List)
				r.With(staff).Put("/{id}", h.Attendance.Update)
			})

			r.Route("/leaves", func(r chi.Router) {
				r.Post("/", h.Leave.Apply)
				r.With(ownerOrReviewer).Get("/user/{userId}", h.Leave.UserLeaves)
				r.With(reviewers).Get("/", h.Leave.List)
				r.With(reviewers).Get("/pending", h.Leave.Pending)
				r.With(staff).Get("/stats/overview", h.Leave.Stats)
				r.With(reviewers).Put("/{id}/review", h.Leave.Review)
				r.Put("/{id}/cancel", h.Leave.Cancel)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(reviewers)
				r.Get("/attendance", h.Report.AttendanceReport)
				r.Get("/leaves", h.Report.LeaveReport)
				r.Get("/monthly-summary", h.Report.MonthlySummary)
				r.Get("/departments", h.Report.Departments)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
