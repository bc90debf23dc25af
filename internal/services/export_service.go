package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ExportService renders workflow results as spreadsheets
type ExportService interface {
	ExportSummaryToExcel(ctx context.Context, teacher models.Teacher, workflowID string) ([]byte, string, error)
}

type exportService struct {
	workflows WorkflowService
	ledger    repositories.SubmissionRepository
	logger    *ServiceLogger
}

func NewExportService(workflows WorkflowService, ledger repositories.SubmissionRepository, logger *ServiceLogger) ExportService {
	return &exportService{
		workflows: workflows,
		ledger:    ledger,
		logger:    logger,
	}
}

const (
	summarySheet     = "Summary"
	submissionsSheet = "Submissions"
)

// ExportSummaryToExcel writes the summary and every acknowledged record of the
// workflow. It returns the file bytes and a suggested file name.
func (s *exportService) ExportSummaryToExcel(ctx context.Context, teacher models.Teacher, workflowID string) (data []byte, filename string, err error) {
	op := s.logger.WithOperation(ctx, "export_summary", teacher.ID).ForWorkflow(workflowID)
	defer func() { op.LogResult(err) }()

	summary, err := s.workflows.Summary(ctx, teacher, workflowID)
	if err != nil {
		return nil, "", err
	}

	submissions, err := s.ledger.GetByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get page submissions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeSummarySheet(f, summary); err != nil {
		return nil, "", err
	}

	if _, err := f.NewSheet(submissionsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeSubmissionsSheet(f, summary.Kind, currentSelection(summary, submissions)); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), exportFileName(summary), nil
}

func writeSummarySheet(f *excelize.File, summary *WorkflowSummary) error {
	rows := [][]interface{}{
		{"Workflow", summary.WorkflowID},
		{"Kind", string(summary.Kind)},
		{"State", string(summary.State)},
		{"Section", summary.Session.SectionID},
		{"Submitted By", summary.Session.TeacherName},
		{"Pages Submitted", summary.Summary.PagesSubmitted},
		{"Total Records", summary.Summary.TotalRecords},
	}

	switch summary.Kind {
	case models.WorkflowMarks:
		rows = append(rows,
			[]interface{}{"Exam", summary.Session.ExamScID},
			[]interface{}{"Average Marks", summary.Summary.AverageMarks},
		)
		for _, band := range models.MarksBands {
			rows = append(rows, []interface{}{"Marks " + band, summary.Summary.MarksBands[band]})
		}
	case models.WorkflowAttendance:
		rows = append(rows, []interface{}{"Date", summary.Session.AttendanceDate})
		for _, status := range models.AttendanceStatuses {
			rows = append(rows, []interface{}{string(status), summary.Summary.StatusCounts[status]})
		}
	}

	for rowIndex, row := range rows {
		if err := writeRow(f, summarySheet, rowIndex+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSubmissionsSheet(f *excelize.File, kind models.WorkflowKind, submissions []*models.PageSubmission) error {
	headers := []string{"Page", "Submitted At", "Student ID"}
	switch kind {
	case models.WorkflowMarks:
		headers = append(headers, "Marks", "Remarks")
	case models.WorkflowAttendance:
		headers = append(headers, "Status")
	}

	headerRow := make([]interface{}, len(headers))
	for i, header := range headers {
		headerRow[i] = header
	}
	if err := writeRow(f, submissionsSheet, 1, headerRow); err != nil {
		return err
	}

	row := 2
	for _, submission := range submissions {
		var records []models.SubmissionRecord
		if len(submission.Records) > 0 {
			if err := json.Unmarshal(submission.Records, &records); err != nil {
				return fmt.Errorf("failed to decode records of page %d: %w", submission.PageIndex, err)
			}
		}

		for _, record := range records {
			values := []interface{}{
				submission.PageIndex,
				submission.CreatedAt.Format("2006-01-02 15:04:05"),
				record.StudentID,
			}
			switch kind {
			case models.WorkflowMarks:
				values = append(values, record.Marks, record.Remarks)
			case models.WorkflowAttendance:
				values = append(values, record.Status)
			}

			if err := writeRow(f, submissionsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for colIndex, value := range values {
		cell, err := excelize.CoordinatesToCellName(colIndex+1, row)
		if err != nil {
			return fmt.Errorf("invalid cell in %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write %s cell %s: %w", sheet, cell, err)
		}
	}
	return nil
}

// currentSelection keeps the ledger rows of the workflow's current section and
// exam or date. Pages acknowledged before a selector change are left out, as
// they are in the summary.
func currentSelection(summary *WorkflowSummary, submissions []*models.PageSubmission) []*models.PageSubmission {
	kept := make([]*models.PageSubmission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.SectionID != summary.Session.SectionID {
			continue
		}
		switch summary.Kind {
		case models.WorkflowMarks:
			if submission.ExamScID != summary.Session.ExamScID {
				continue
			}
		case models.WorkflowAttendance:
			if submission.AttendanceDate != summary.Session.AttendanceDate {
				continue
			}
		}
		kept = append(kept, submission)
	}
	return kept
}

func exportFileName(summary *WorkflowSummary) string {
	switch summary.Kind {
	case models.WorkflowAttendance:
		return fmt.Sprintf("attendance_%s_%s.xlsx", summary.Session.SectionID, summary.Session.AttendanceDate)
	default:
		return fmt.Sprintf("marks_%s_%s.xlsx", summary.Session.SectionID, summary.Session.ExamScID)
	}
}
