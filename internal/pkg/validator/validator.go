package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-8][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsValidUUID accepts RFC 4122 UUIDs of any version.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(strings.ToLower(uuid))
}

// Numeric validation
var numericRegex = regexp.MustCompile(`^[0-9]+$`)

func IsNumeric(s string) bool {
	return numericRegex.MatchString(s)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// Wall-clock time, 24h, hour may omit the leading zero.
var clockRegex = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

func IsValidClock(s string) bool {
	return clockRegex.MatchString(s)
}

// ParseClock returns the minutes since midnight of an HH:MM string.
func ParseClock(s string) (int, bool) {
	if !IsValidClock(s) {
		return 0, false
	}
	parts := strings.SplitN(s, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m, true
}

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func IsValidHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// Phone number validation: digits with optional leading +, spaces and dashes ignored.
func IsValidPhoneNumber(phone string) bool {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.TrimPrefix(phone, "+")

	if len(phone) < 7 || len(phone) > 15 {
		return false
	}
	return IsNumeric(phone)
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// IsValidDateTime checks if a string is a valid ISO8601 timestamp.
// Accepts formats like: "2024-01-15T10:30:00Z" or "2024-01-15T10:30:00+07:00"
func IsValidDateTime(dateTimeStr string) (time.Time, bool) {
	// Try RFC3339 format (ISO8601 with timezone)
	t, err := time.Parse(time.RFC3339, dateTimeStr)
	if err == nil {
		return t, true
	}

	// Try RFC3339Nano format (with nanoseconds)
	t, err = time.Parse(time.RFC3339Nano, dateTimeStr)
	if err == nil {
		return t, true
	}

	return time.Time{}, false
}

// Pagination validates page and limit, filling the defaults (1 and 20).
func Pagination(page, limit *int) ValidationErrors {
	var errs ValidationErrors

	if *page < 0 {
		errs = append(errs, ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = 1
	}

	if *limit < 0 {
		errs = append(errs, ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs = append(errs, ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs
}

// OptionalDate validates a YYYY-MM-DD pointer when it is set.
func OptionalDate(field string, value *string) ValidationErrors {
	if value == nil || *value == "" {
		return nil
	}
	if _, ok := IsValidDate(*value); !ok {
		return ValidationErrors{{
			Field:   field,
			Message: field + " must be in YYYY-MM-DD format",
		}}
	}
	return nil
}
