package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler interface {
	AttendanceReport(w http.ResponseWriter, r *http.Request)
	LeaveReport(w http.ResponseWriter, r *http.Request)
	MonthlySummary(w http.ResponseWriter, r *http.Request)
	Departments(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
	loc           *time.Location
}

func NewReportHandler(reportService report.ReportService, loc *time.Location) ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &reportHandlerImpl{
		reportService: reportService,
		loc:           loc,
	}
}

// AttendanceReport handles GET /reports/attendance
func (h *reportHandlerImpl) AttendanceReport(w http.ResponseWriter, r *http.Request) {
	req := report.AttendanceReportRequest{
		StartDate:  r.URL.Query().Get("start_date"),
		EndDate:    r.URL.Query().Get("end_date"),
		Department: queryString(r, "department"),
		UserID:     queryString(r, "user_id"),
		Format:     r.URL.Query().Get("format"),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.AttendanceReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if req.Format == report.FormatXLSX {
		filename := fmt.Sprintf("attendance-report-%s-to-%s.xlsx", req.StartDate, req.EndDate)
		h.writeXLSX(w, filename, func(buf *bytes.Buffer) error {
			return h.reportService.WriteAttendanceXLSX(buf, result)
		})
		return
	}
	response.Success(w, result)
}

// LeaveReport handles GET /reports/leaves
func (h *reportHandlerImpl) LeaveReport(w http.ResponseWriter, r *http.Request) {
	req := report.LeaveReportRequest{
		StartDate:  queryString(r, "start_date"),
		EndDate:    queryString(r, "end_date"),
		Department: queryString(r, "department"),
		UserID:     queryString(r, "user_id"),
		Status:     queryString(r, "status"),
		Type:       queryString(r, "type"),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.LeaveReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// MonthlySummary handles GET /reports/monthly-summary
func (h *reportHandlerImpl) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	req := report.MonthlySummaryRequest{
		Department: queryString(r, "department"),
		Format:     r.URL.Query().Get("format"),
	}

	var err error
	if m := r.URL.Query().Get("month"); m != "" {
		if req.Month, err = strconv.Atoi(m); err != nil {
			response.BadRequest(w, "invalid month parameter", nil)
			return
		}
	}
	if y := r.URL.Query().Get("year"); y != "" {
		if req.Year, err = strconv.Atoi(y); err != nil {
			response.BadRequest(w, "invalid year parameter", nil)
			return
		}
	}

	if err := req.Validate(time.Now().In(h.loc)); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.MonthlySummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if req.Format == report.FormatXLSX {
		filename := fmt.Sprintf("monthly-summary-%d-%02d.xlsx", req.Year, req.Month)
		h.writeXLSX(w, filename, func(buf *bytes.Buffer) error {
			return h.reportService.WriteMonthlySummaryXLSX(buf, result)
		})
		return
	}
	response.Success(w, result)
}

// Departments handles GET /reports/departments
func (h *reportHandlerImpl) Departments(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.Departments(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// writeXLSX renders into a buffer first so a failed render still gets a JSON
// error instead of a truncated download.
func (h *reportHandlerImpl) writeXLSX(w http.ResponseWriter, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("Failed to render workbook", "file", filename, "error", err)
		response.InternalServerError(w, "Failed to generate report file")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write workbook", "file", filename, "error", err)
	}
}
