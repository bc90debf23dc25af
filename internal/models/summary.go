package models

import "strconv"

// Marks bands used in completion summaries
const (
	BandBelow40 = "0-39"
	Band40To59  = "40-59"
	Band60To79  = "60-79"
	Band80To100 = "80-100"
)

var MarksBands = []string{BandBelow40, Band40To59, Band60To79, Band80To100}

// Summary tallies what has been acknowledged by the remote sink so far
type Summary struct {
	Kind           WorkflowKind             `json:"kind"`
	PagesSubmitted int                      `json:"pages_submitted"`
	TotalRecords   int                      `json:"total_records"`
	StatusCounts   map[AttendanceStatus]int `json:"status_counts,omitempty"`
	MarksBands     map[string]int           `json:"marks_bands,omitempty"`
	MarksSum       float64                  `json:"marks_sum,omitempty"`
	AverageMarks   float64                  `json:"average_marks,omitempty"`
}

func NewSummary(kind WorkflowKind) Summary {
	s := Summary{Kind: kind}
	switch kind {
	case WorkflowAttendance:
		s.StatusCounts = make(map[AttendanceStatus]int, len(AttendanceStatuses))
		for _, status := range AttendanceStatuses {
			s.StatusCounts[status] = 0
		}
	case WorkflowMarks:
		s.MarksBands = make(map[string]int, len(MarksBands))
		for _, band := range MarksBands {
			s.MarksBands[band] = 0
		}
	}
	return s
}

// AddPage folds one acknowledged page into the summary
func (s *Summary) AddPage(records []SubmissionRecord) {
	s.PagesSubmitted++
	for _, record := range records {
		s.TotalRecords++
		switch s.Kind {
		case WorkflowAttendance:
			if status, ok := ParseAttendanceStatus(record.Status); ok {
				s.StatusCounts[status]++
			}
		case WorkflowMarks:
			marks, err := strconv.ParseFloat(NormalizeMarks(record.Marks), 64)
			if err != nil {
				continue
			}
			s.MarksBands[MarksBand(marks)]++
			s.MarksSum += marks
		}
	}
	if s.Kind == WorkflowMarks && s.TotalRecords > 0 {
		s.AverageMarks = s.MarksSum / float64(s.TotalRecords)
	}
}

func (s Summary) Clone() Summary {
	out := s
	if s.StatusCounts != nil {
		out.StatusCounts = make(map[AttendanceStatus]int, len(s.StatusCounts))
		for k, v := range s.StatusCounts {
			out.StatusCounts[k] = v
		}
	}
	if s.MarksBands != nil {
		out.MarksBands = make(map[string]int, len(s.MarksBands))
		for k, v := range s.MarksBands {
			out.MarksBands[k] = v
		}
	}
	return out
}

func MarksBand(marks float64) string {
	switch {
	case marks < 40:
		return BandBelow40
	case marks < 60:
		return Band40To59
	case marks < 80:
		return Band60To79
	default:
		return Band80To100
	}
}
