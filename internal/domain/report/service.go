package report

import (
	"context"
	"io"
)

// ReportService defines the interface for report generation
type ReportService interface {
	AttendanceReport(ctx context.Context, req AttendanceReportRequest) (AttendanceReport, error)
	LeaveReport(ctx context.Context, req LeaveReportRequest) (LeaveReport, error)
	MonthlySummary(ctx context.Context, req MonthlySummaryRequest) (MonthlySummary, error)
	Departments(ctx context.Context) ([]string, error)

	// WriteAttendanceXLSX and WriteMonthlySummaryXLSX render a report as an
	// Excel workbook.
	WriteAttendanceXLSX(w io.Writer, r AttendanceReport) error
	WriteMonthlySummaryXLSX(w io.Writer, r MonthlySummary) error
}
