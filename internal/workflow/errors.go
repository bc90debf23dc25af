package workflow

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
)

var (
	ErrSubmitInProgress  = errors.New("a page submission is already in progress")
	ErrWorkflowClosed    = errors.New("workflow has been closed")
	ErrWorkflowCompleted = errors.New("workflow is already completed")
	ErrEmptyRoster       = errors.New("no entries to grade")
	ErrUnknownEntity     = errors.New("entity is not part of the roster")
	ErrUnknownField      = errors.New("field is not accepted for this workflow")
	ErrInvalidSnapshot   = errors.New("invalid workflow snapshot")
)

// SubmissionError is returned when the remote sink did not acknowledge a page.
// Local state is untouched so the page can be retried.
type SubmissionError struct {
	PageIndex int
	Reason    string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("page %d submission failed: %s", e.PageIndex, e.Reason)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func newSubmissionError(pageIndex int, err error, serverMessage string) *SubmissionError {
	reason := serverMessage
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		reason = "the server did not respond in time"
	case err != nil && errors.Is(err, context.Canceled):
		reason = "the request was cancelled"
	case err != nil:
		reason = err.Error()
	case reason == "":
		reason = "the server rejected the submission"
	}
	return &SubmissionError{PageIndex: pageIndex, Reason: reason, Err: err}
}

// IsSubmission checks if err is a remote submission failure
func IsSubmission(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// IsValidation checks if err is a local entry validation failure
func IsValidation(err error) bool {
	var ve *apperrors.ValidationError
	return errors.As(err, &ve)
}
