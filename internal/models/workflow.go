package models

import "strings"

type WorkflowKind string

const (
	WorkflowMarks      WorkflowKind = "marks"
	WorkflowAttendance WorkflowKind = "attendance"
)

func (k WorkflowKind) IsValid() bool {
	return k == WorkflowMarks || k == WorkflowAttendance
}

// RequiredFields returns the fields every roster entity needs before a page can be submitted
func (k WorkflowKind) RequiredFields() []string {
	switch k {
	case WorkflowMarks:
		return []string{FieldMarks}
	case WorkflowAttendance:
		return []string{FieldStatus}
	default:
		return nil
	}
}

// AllowsField reports whether the field can be entered in this kind of workflow
func (k WorkflowKind) AllowsField(field string) bool {
	switch k {
	case WorkflowMarks:
		return field == FieldMarks || field == FieldRemarks
	case WorkflowAttendance:
		return field == FieldStatus
	default:
		return false
	}
}

// Field names
const (
	FieldMarks   = "marks"
	FieldRemarks = "remarks"
	FieldStatus  = "status"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusLate    AttendanceStatus = "LATE"
)

var AttendanceStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate}

// ParseAttendanceStatus accepts any casing and returns the normalized status
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	normalized := AttendanceStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, status := range AttendanceStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// NormalizeMarks strips surrounding whitespace from an entered marks value
func NormalizeMarks(raw string) string {
	return strings.TrimSpace(raw)
}

// SessionContext carries the acting teacher and the screen selectors into a workflow.
// It is supplied once at construction instead of being read from storage ad hoc.
type SessionContext struct {
	TeacherID      string `json:"teacher_id"`
	TeacherName    string `json:"teacher_name,omitempty"`
	Organization   string `json:"organization,omitempty"`
	SectionID      string `json:"section_id"`
	ExamScID       string `json:"exam_sc_id,omitempty"`
	SubjectID      string `json:"subject_id,omitempty"`
	AttendanceDate string `json:"attendance_date,omitempty"` // YYYY-MM-DD
}

// Entry holds the values entered for one entity. Only fields listed in Set have been entered.
type Entry struct {
	Marks   string `json:"marks,omitempty"`
	Remarks string `json:"remarks,omitempty"`
	Status  string `json:"status,omitempty"`

	Set []string `json:"set,omitempty"`
}

func (e Entry) Has(field string) bool {
	for _, f := range e.Set {
		if f == field {
			return true
		}
	}
	return false
}

// Get returns the raw value of field and whether it was entered
func (e Entry) Get(field string) (string, bool) {
	if !e.Has(field) {
		return "", false
	}
	switch field {
	case FieldMarks:
		return e.Marks, true
	case FieldRemarks:
		return e.Remarks, true
	case FieldStatus:
		return e.Status, true
	}
	return "", false
}

// With returns a copy of the entry with field set to value
func (e Entry) With(field, value string) Entry {
	out := e.clone()
	switch field {
	case FieldMarks:
		out.Marks = value
	case FieldRemarks:
		out.Remarks = value
	case FieldStatus:
		out.Status = value
	}
	if !out.Has(field) {
		out.Set = append(out.Set, field)
	}
	return out
}

func (e Entry) clone() Entry {
	out := e
	out.Set = append([]string(nil), e.Set...)
	return out
}

// FieldValues maps entity id to its entered values. Absent key means nothing entered yet.
type FieldValues map[string]Entry

func (fv FieldValues) Clone() FieldValues {
	out := make(FieldValues, len(fv))
	for id, entry := range fv {
		out[id] = entry.clone()
	}
	return out
}

// Value returns the raw value for entity/field and whether it is present
func (fv FieldValues) Value(entityID, field string) (string, bool) {
	entry, ok := fv[entityID]
	if !ok {
		return "", false
	}
	return entry.Get(field)
}
