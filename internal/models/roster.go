package models

import "strings"

// RosterEntry identifies one subject of grading or attendance in a workflow run.
type RosterEntry struct {
	EntityID    string `json:"entity_id"`
	DisplayName string `json:"display_name"`
}

// Student is the shape returned by the school API roster endpoint
type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	RollNo    string `json:"rollNo,omitempty"`
}

func (s Student) ToRosterEntry() RosterEntry {
	return RosterEntry{
		EntityID:    s.ID,
		DisplayName: strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName)),
	}
}

// RosterResponse mirrors GET /getStudentBySection
type RosterResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    []Student `json:"data"`
}
