package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
	"github.com/SAP-F-2025/grading-workflow-service/internal/workflow"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrWorkflowNotFound     = errors.New("workflow not found")
	ErrWorkflowAccessDenied = errors.New("access denied to workflow")
)

// Business rules
const (
	RuleSelectorMismatch = "selector_mismatch"
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// DataLoadError means the roster could not be fetched. No workflow is created from a partial roster.
type DataLoadError struct {
	SectionID string
	Err       error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("failed to load roster for section %s: %v", e.SectionID, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrWorkflowAccessDenied)
}

// IsValidation checks if error represents a validation failure, either of the
// request body or of the entries on the current page
func IsValidation(err error) bool {
	if errors.Is(err, workflow.ErrUnknownEntity) ||
		errors.Is(err, workflow.ErrUnknownField) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	return workflow.IsValidation(err)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a state conflict on the workflow
func IsConflict(err error) bool {
	return errors.Is(err, workflow.ErrSubmitInProgress) ||
		errors.Is(err, workflow.ErrWorkflowCompleted) ||
		errors.Is(err, workflow.ErrWorkflowClosed) ||
		errors.Is(err, workflow.ErrEmptyRoster)
}

// IsSubmissionFailure checks if the remote sink did not acknowledge a page
func IsSubmissionFailure(err error) bool {
	return workflow.IsSubmission(err)
}

// IsDataLoad checks if the roster could not be loaded
func IsDataLoad(err error) bool {
	var dle *DataLoadError
	return errors.As(err, &dle)
}
