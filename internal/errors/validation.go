package errors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Rules reported on entry validation failures
const (
	RuleRequired         = "required"
	RuleMarksRange       = "marks_range"
	RuleAttendanceStatus = "attendance_status"
	RuleRemarksLength    = "remarks_length"
	RuleUnknownField     = "unknown_field"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Value    interface{} `json:"value,omitempty"`
	Rule     string      `json:"rule,omitempty"`
	EntityID string      `json:"entity_id,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func (pe *ValidationError) Error() string {
	if pe.EntityID != "" {
		return fmt.Sprintf("validation error on field '%s' for entity '%s': %s", pe.Field, pe.EntityID, pe.Message)
	}
	return fmt.Sprintf("validation error on field '%s': %s", pe.Field, pe.Message)
}

// IsMissing reports whether the error is about a value that was never entered
func (pe *ValidationError) IsMissing() bool {
	return pe.Rule == RuleRequired
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewValidationErrorWithRule creates a new validation error with rule
func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    rule,
	}
}

// NewEntryError creates a validation error scoped to one roster entity
func NewEntryError(entityID, field, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:    field,
		Message:  RuleMessage(rule),
		Value:    value,
		Rule:     rule,
		EntityID: entityID,
	}
}

// RuleMessage returns the user-facing message for an entry rule
func RuleMessage(rule string) string {
	switch rule {
	case RuleRequired:
		return "is required"
	case RuleMarksRange:
		return "must be a number between 0 and 100"
	case RuleAttendanceStatus:
		return "must be one of PRESENT, ABSENT, LATE"
	case RuleRemarksLength:
		return "must not exceed 255 characters"
	case RuleUnknownField:
		return "is not accepted for this workflow"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", rule)
	}
}

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	if validatorErr, ok := err.(validator.ValidationErrors); ok {
		for _, err := range validatorErr {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", err.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "numeric":
		return "must be a number"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", err.Param())

	// Custom validators
	case RuleMarksRange:
		return RuleMessage(RuleMarksRange)
	case RuleAttendanceStatus:
		return RuleMessage(RuleAttendanceStatus)
	case "workflow_kind":
		return "must be a valid workflow kind (marks, attendance)"

	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
