package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionRecord is one entity's values inside a page submission
type SubmissionRecord struct {
	StudentID string `json:"student_id"`
	Marks     string `json:"marks,omitempty"`
	Remarks   string `json:"remarks,omitempty"`
	Status    string `json:"status,omitempty"`
}

// SubmissionBatch is the set of values for the entities of one page at submit time
type SubmissionBatch struct {
	WorkflowID string             `json:"workflow_id"`
	Kind       WorkflowKind       `json:"kind"`
	Session    SessionContext     `json:"session"`
	PageIndex  int                `json:"page_index"`
	TotalPages int                `json:"total_pages"`
	IsFinal    bool               `json:"is_final"`
	Records    []SubmissionRecord `json:"records"`
}

// SinkResult is the remote acknowledgement for a page
type SinkResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ===== SCHOOL API WIRE PAYLOADS =====

type MarksRecordPayload struct {
	StudentID string `json:"studentId"`
	Marks     string `json:"marks"`
	Remarks   string `json:"remarks"`
}

type MarksMetadataPayload struct {
	SubmittedBy      string `json:"submittedBy"`
	IsMarksSubmitted bool   `json:"isMarksSubmitted"`
}

type MarksSubmissionPayload struct {
	Marks    []MarksRecordPayload `json:"marks"`
	Metadata MarksMetadataPayload `json:"metadata"`
}

type AttendanceRecordPayload struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
}

type AttendanceSubmissionPayload struct {
	SectionID      string                    `json:"sectionId"`
	AttendanceDate string                    `json:"attendanceDate"`
	Records        []AttendanceRecordPayload `json:"records"`
}

// SinkResponse accepts both the "success" and "ok" acknowledgement flags used by the school API
type SinkResponse struct {
	Success *bool  `json:"success,omitempty"`
	OK      *bool  `json:"ok,omitempty"`
	Message string `json:"message,omitempty"`
}

// ===== LEDGER =====

// PageSubmission is the ledger row written for every acknowledged page
type PageSubmission struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	WorkflowID     string         `json:"workflow_id" gorm:"not null;size:64;index"`
	Kind           WorkflowKind   `json:"kind" gorm:"not null;size:20;index"`
	SectionID      string         `json:"section_id" gorm:"not null;size:64;index"`
	ExamScID       string         `json:"exam_sc_id,omitempty" gorm:"size:64"`
	AttendanceDate string         `json:"attendance_date,omitempty" gorm:"size:10"`
	PageIndex      int            `json:"page_index" gorm:"not null"`
	TotalPages     int            `json:"total_pages" gorm:"not null"`
	IsFinal        bool           `json:"is_final" gorm:"default:false"`
	SubmittedBy    string         `json:"submitted_by" gorm:"not null;size:64;index"`
	RecordCount    int            `json:"record_count"`
	Records        datatypes.JSON `json:"records" gorm:"type:jsonb"` // []SubmissionRecord
	SinkMessage    string         `json:"sink_message,omitempty" gorm:"size:500"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (PageSubmission) TableName() string {
	return "page_submissions"
}
