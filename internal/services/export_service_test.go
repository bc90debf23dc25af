package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_AttendanceWorkbook(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	f.roster.On("GetStudentsBySection", mock.Anything, "sec-1").Return(makeRoster(2), nil)
	f.sink.On("SubmitPage", mock.Anything, mock.Anything).Return(&models.SinkResult{Success: true}, nil)
	f.ledger.On("Create", mock.Anything, mock.Anything).Return(nil)

	view, err := f.service.Start(ctx, teacher, &models.StartWorkflowRequest{
		Kind:           models.WorkflowAttendance,
		SectionID:      "sec-1",
		AttendanceDate: "2026-10-16",
	})
	require.NoError(t, err)

	_, err = f.service.UpdateEntries(ctx, teacher, view.WorkflowID, &models.UpdateEntriesRequest{
		Entries: []models.EntryUpdate{
			{EntityID: "s01", Status: ptr("present")},
			{EntityID: "s02", Status: ptr("LATE")},
		},
	})
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, teacher, view.WorkflowID)
	require.NoError(t, err)

	records, err := json.Marshal([]models.SubmissionRecord{
		{StudentID: "s01", Status: "PRESENT"},
		{StudentID: "s02", Status: "LATE"},
	})
	require.NoError(t, err)
	f.ledger.On("GetByWorkflow", mock.Anything, view.WorkflowID).Return([]*models.PageSubmission{{
		WorkflowID:     view.WorkflowID,
		Kind:           models.WorkflowAttendance,
		SectionID:      "sec-1",
		AttendanceDate: "2026-10-16",
		PageIndex:      1,
		TotalPages:     1,
		IsFinal:        true,
		Records:        records,
		CreatedAt:      time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
	}}, nil)

	exporter := NewExportService(f.service, f.ledger, NewServiceLogger(discardLogger(), LogConfig{Service: "grading-workflow-service", Component: "export"}))
	data, filename, err := exporter.ExportSummaryToExcel(ctx, teacher, view.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "attendance_sec-1_2026-10-16.xlsx", filename)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{summarySheet, submissionsSheet}, book.GetSheetList())

	state, err := book.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "completed", state)

	rows, err := book.GetRows(summarySheet)
	require.NoError(t, err)
	counts := make(map[string]string)
	for _, row := range rows {
		if len(row) == 2 {
			counts[row[0]] = row[1]
		}
	}
	assert.Equal(t, "1", counts["PRESENT"])
	assert.Equal(t, "1", counts["LATE"])
	assert.Equal(t, "0", counts["ABSENT"])

	student, err := book.GetCellValue(submissionsSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "s02", student)
	status, err := book.GetCellValue(submissionsSheet, "D3")
	require.NoError(t, err)
	assert.Equal(t, "LATE", status)
}

func TestExportService_UnknownWorkflow(t *testing.T) {
	f := newServiceFixture()
	exporter := NewExportService(f.service, f.ledger, NewServiceLogger(discardLogger(), LogConfig{}))

	_, _, err := exporter.ExportSummaryToExcel(context.Background(), teacher, "missing")
	assert.True(t, IsNotFound(err))
	f.ledger.AssertNotCalled(t, "GetByWorkflow", mock.Anything, mock.Anything)
}

func TestExportService_SkipsPagesOfPreviousSelection(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	f.roster.On("GetStudentsBySection", mock.Anything, "sec-1").Return(makeRoster(2), nil)

	view, err := f.service.Start(ctx, teacher, marksRequest())
	require.NoError(t, err)
	_, err = f.service.ChangeSelector(ctx, teacher, view.WorkflowID, &models.ChangeSelectorRequest{SectionID: "sec-1", ExamScID: "exam-2"})
	require.NoError(t, err)

	page := func(examScID, marks string) *models.PageSubmission {
		records, err := json.Marshal([]models.SubmissionRecord{{StudentID: "s01", Marks: marks}})
		require.NoError(t, err)
		return &models.PageSubmission{
			WorkflowID: view.WorkflowID,
			Kind:       models.WorkflowMarks,
			SectionID:  "sec-1",
			ExamScID:   examScID,
			PageIndex:  1,
			TotalPages: 1,
			Records:    records,
		}
	}
	f.ledger.On("GetByWorkflow", mock.Anything, view.WorkflowID).
		Return([]*models.PageSubmission{page("exam-1", "40"), page("exam-2", "85")}, nil)

	exporter := NewExportService(f.service, f.ledger, NewServiceLogger(discardLogger(), LogConfig{}))
	data, filename, err := exporter.ExportSummaryToExcel(ctx, teacher, view.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "marks_sec-1_exam-2.xlsx", filename)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(submissionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the exam-2 record")
	assert.Equal(t, "85", rows[1][3])
}

func TestWriteRow_UnknownSheet(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()

	err := writeRow(book, "Missing", 1, []interface{}{"a", 1})
	assert.Error(t, err)
	assert.NoError(t, writeRow(book, "Sheet1", 1, []interface{}{"a", 1}))
}
