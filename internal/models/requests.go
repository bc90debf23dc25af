package models

// Teacher is the verified identity acting on a workflow
type Teacher struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// ===== REQUEST DTOs =====

type StartWorkflowRequest struct {
	Kind           WorkflowKind `json:"kind" validate:"required,workflow_kind"`
	SectionID      string       `json:"section_id" validate:"required,max=64"`
	ExamScID       string       `json:"exam_sc_id" validate:"required_if=Kind marks,max=64"`
	SubjectID      string       `json:"subject_id" validate:"max=64"`
	AttendanceDate string       `json:"attendance_date" validate:"required_if=Kind attendance,omitempty,datetime=2006-01-02"`
	PageSize       int          `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// EntryUpdate carries the fields a user touched for one entity. Nil means untouched.
type EntryUpdate struct {
	EntityID string  `json:"entity_id" validate:"required"`
	Marks    *string `json:"marks,omitempty" validate:"omitempty,max=16"`
	Remarks  *string `json:"remarks,omitempty" validate:"omitempty,max=255"`
	Status   *string `json:"status,omitempty" validate:"omitempty,max=16"`
}

type UpdateEntriesRequest struct {
	Entries []EntryUpdate `json:"entries" validate:"required,min=1,max=100,dive"`
}

type ChangeSelectorRequest struct {
	SectionID      string `json:"section_id" validate:"required,max=64"`
	ExamScID       string `json:"exam_sc_id" validate:"max=64"`
	SubjectID      string `json:"subject_id" validate:"max=64"`
	AttendanceDate string `json:"attendance_date" validate:"omitempty,datetime=2006-01-02"`
}

type ListSubmissionsRequest struct {
	WorkflowID string       `form:"workflow_id" json:"workflow_id"`
	SectionID  string       `form:"section_id" json:"section_id"`
	Kind       WorkflowKind `form:"kind" json:"kind" validate:"omitempty,workflow_kind"`
	Limit      int          `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int          `form:"offset" json:"offset" validate:"omitempty,min=0"`
	SortBy     string       `form:"sort_by" json:"sort_by" validate:"omitempty,oneof=created_at page_index"`
	SortOrder  string       `form:"sort_order" json:"sort_order" validate:"omitempty,oneof=asc desc"`
	DateFrom   string       `form:"date_from" json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string       `form:"date_to" json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}
