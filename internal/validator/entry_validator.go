package validator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
)

const (
	MinMarks         = 0.0
	MaxMarks         = 100.0
	MaxRemarksLength = 255
)

// ValidateField checks one raw value against the rule of its field.
// An empty marks value is valid here; completeness is checked separately.
func ValidateField(fieldName, rawValue string) bool {
	return fieldRule(fieldName, rawValue) == ""
}

// fieldRule returns the violated rule for a non-missing value, or "" when valid
func fieldRule(fieldName, rawValue string) string {
	switch fieldName {
	case models.FieldMarks:
		if rawValue == "" || validMarks(rawValue) {
			return ""
		}
		return apperrors.RuleMarksRange
	case models.FieldStatus:
		if _, ok := models.ParseAttendanceStatus(rawValue); ok {
			return ""
		}
		return apperrors.RuleAttendanceStatus
	case models.FieldRemarks:
		if utf8.RuneCountInString(rawValue) <= MaxRemarksLength {
			return ""
		}
		return apperrors.RuleRemarksLength
	default:
		return apperrors.RuleUnknownField
	}
}

// plain decimals only: no sign, exponent, hex form or digit separators
var marksPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

func validMarks(raw string) bool {
	normalized := models.NormalizeMarks(raw)
	if !marksPattern.MatchString(normalized) {
		return false
	}
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return false
	}
	return value >= MinMarks && value <= MaxMarks
}

// PageIsComplete is true iff every entity on the page has a non-empty valid value for every required field
func PageIsComplete(pageEntities []models.RosterEntry, fieldValues models.FieldValues, requiredFields []string) bool {
	return CheckPage(pageEntities, fieldValues, requiredFields) == nil
}

// CheckPage returns the first failure in page order, or nil when the page is complete.
// Optional fields that were entered are checked too.
func CheckPage(pageEntities []models.RosterEntry, fieldValues models.FieldValues, requiredFields []string) *apperrors.ValidationError {
	for _, entity := range pageEntities {
		entry := fieldValues[entity.EntityID]
		for _, field := range requiredFields {
			value, ok := entry.Get(field)
			if !ok || strings.TrimSpace(value) == "" {
				return apperrors.NewEntryError(entity.EntityID, field, apperrors.RuleRequired, value)
			}
			if rule := fieldRule(field, value); rule != "" {
				return apperrors.NewEntryError(entity.EntityID, field, rule, value)
			}
		}
		for _, field := range entry.Set {
			if contains(requiredFields, field) {
				continue
			}
			value, _ := entry.Get(field)
			if rule := fieldRule(field, value); rule != "" {
				return apperrors.NewEntryError(entity.EntityID, field, rule, value)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
