package events

import (
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/google/uuid"
)

// EventType represents the workflow lifecycle events this service emits
type EventType string

const (
	EventPageSubmitted    EventType = "workflow.page_submitted"
	EventWorkflowComplete EventType = "workflow.completed"
	EventSubmissionFailed EventType = "workflow.submission_failed"
)

const (
	eventSource  = "grading-workflow-service"
	eventVersion = "1.0"
)

// WorkflowEvent is the envelope for every event published by the service
type WorkflowEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type PageSubmittedEvent struct {
	WorkflowID     string              `json:"workflow_id"`
	Kind           models.WorkflowKind `json:"kind"`
	SectionID      string              `json:"section_id"`
	ExamScID       string              `json:"exam_sc_id,omitempty"`
	AttendanceDate string              `json:"attendance_date,omitempty"`
	PageIndex      int                 `json:"page_index"`
	TotalPages     int                 `json:"total_pages"`
	RecordCount    int                 `json:"record_count"`
	SubmittedBy    string              `json:"submitted_by"`
}

type WorkflowCompletedEvent struct {
	WorkflowID  string              `json:"workflow_id"`
	Kind        models.WorkflowKind `json:"kind"`
	SectionID   string              `json:"section_id"`
	SubmittedBy string              `json:"submitted_by"`
	Summary     models.Summary      `json:"summary"`
}

type SubmissionFailedEvent struct {
	WorkflowID  string              `json:"workflow_id"`
	Kind        models.WorkflowKind `json:"kind"`
	SectionID   string              `json:"section_id"`
	PageIndex   int                 `json:"page_index"`
	Reason      string              `json:"reason"`
	SubmittedBy string              `json:"submitted_by"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *WorkflowEvent {
	return &WorkflowEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewPageSubmittedEvent(batch *models.SubmissionBatch) *WorkflowEvent {
	return newEvent(EventPageSubmitted, PageSubmittedEvent{
		WorkflowID:     batch.WorkflowID,
		Kind:           batch.Kind,
		SectionID:      batch.Session.SectionID,
		ExamScID:       batch.Session.ExamScID,
		AttendanceDate: batch.Session.AttendanceDate,
		PageIndex:      batch.PageIndex,
		TotalPages:     batch.TotalPages,
		RecordCount:    len(batch.Records),
		SubmittedBy:    batch.Session.TeacherID,
	})
}

func NewWorkflowCompletedEvent(workflowID string, session models.SessionContext, summary models.Summary) *WorkflowEvent {
	return newEvent(EventWorkflowComplete, WorkflowCompletedEvent{
		WorkflowID:  workflowID,
		Kind:        summary.Kind,
		SectionID:   session.SectionID,
		SubmittedBy: session.TeacherID,
		Summary:     summary,
	})
}

func NewSubmissionFailedEvent(workflowID string, kind models.WorkflowKind, session models.SessionContext, pageIndex int, reason string) *WorkflowEvent {
	return newEvent(EventSubmissionFailed, SubmissionFailedEvent{
		WorkflowID:  workflowID,
		Kind:        kind,
		SectionID:   session.SectionID,
		PageIndex:   pageIndex,
		Reason:      reason,
		SubmittedBy: session.TeacherID,
	})
}

// GenerateEventID returns a random UUID
func GenerateEventID() string {
	return uuid.NewString()
}
