package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldValidationError represents a validation error for a specific field
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldValidationErrors represents multiple field validation errors
type FieldValidationErrors []FieldValidationError

// Error implements the error interface
func (e FieldValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Add records a failure for field
func (e *FieldValidationErrors) Add(field, message string) {
	*e = append(*e, FieldValidationError{Field: field, Message: message})
}

// OrNil returns e as an error, or nil when nothing was recorded
func (e FieldValidationErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var idRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID checks an identifier taken from a path or body
func ValidateID(id string) (bool, string) {
	if id == "" {
		return false, "is required"
	}
	if len(id) > MaxIDLength {
		return false, fmt.Sprintf("must be at most %d characters", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return false, "contains invalid characters"
	}
	return true, ""
}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date (midnight UTC)
// and returns it in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t.UTC(), nil
}

// ParseDateRange parses both ends of a range, reporting each bad field
func ParseDateRange(startField, start, endField, end string) (time.Time, time.Time, error) {
	var errs FieldValidationErrors
	from, err := ParseDate(start)
	if err != nil {
		errs.Add(startField, ErrInvalidDate)
	}
	to, err := ParseDate(end)
	if err != nil {
		errs.Add(endField, ErrInvalidDate)
	}
	return from, to, errs.OrNil()
}
