package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
)

const maxResponseBytes = 4 << 20

var (
	ErrRosterUnavailable = errors.New("roster is unavailable")
	ErrMissingSelector   = errors.New("required selector is missing")
)

// APIError is a non-2xx answer from the school API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("school api returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("school api returned %d: %s", e.StatusCode, e.Message)
}

type SchoolAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// SchoolAPIClient talks to the school REST API. It is both the roster provider
// and the remote sink for marks and attendance pages.
type SchoolAPIClient struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSchoolAPIClient(cfg SchoolAPIConfig, logger *slog.Logger) (*SchoolAPIClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid school api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid school api url %q", cfg.BaseURL)
	}

	return &SchoolAPIClient{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// GetStudentsBySection loads the ordered roster of a section
func (c *SchoolAPIClient) GetStudentsBySection(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	if strings.TrimSpace(sectionID) == "" {
		return nil, fmt.Errorf("%w: section id", ErrMissingSelector)
	}

	query := url.Values{}
	query.Set("sectionId", sectionID)

	var resp models.RosterResponse
	status, err := c.do(ctx, http.MethodGet, "getStudentBySection", query, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Message: resp.Message}
	}
	if !resp.Success {
		if resp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrRosterUnavailable, resp.Message)
		}
		return nil, ErrRosterUnavailable
	}

	roster := make([]models.RosterEntry, 0, len(resp.Data))
	for _, student := range resp.Data {
		if student.ID == "" {
			continue
		}
		roster = append(roster, student.ToRosterEntry())
	}

	c.logger.Debug("Loaded section roster", "section_id", sectionID, "students", len(roster))
	return roster, nil
}

// SubmitPage sends one page to the endpoint matching the workflow kind
func (c *SchoolAPIClient) SubmitPage(ctx context.Context, batch *models.SubmissionBatch) (*models.SinkResult, error) {
	switch batch.Kind {
	case models.WorkflowMarks:
		return c.SubmitMarks(ctx, batch)
	case models.WorkflowAttendance:
		return c.SubmitAttendance(ctx, batch)
	default:
		return nil, fmt.Errorf("unsupported workflow kind %q", batch.Kind)
	}
}

func (c *SchoolAPIClient) SubmitMarks(ctx context.Context, batch *models.SubmissionBatch) (*models.SinkResult, error) {
	if batch.Session.ExamScID == "" {
		return nil, fmt.Errorf("%w: exam id", ErrMissingSelector)
	}

	payload := models.MarksSubmissionPayload{
		Marks: make([]models.MarksRecordPayload, 0, len(batch.Records)),
		Metadata: models.MarksMetadataPayload{
			SubmittedBy:      batch.Session.TeacherID,
			IsMarksSubmitted: batch.IsFinal,
		},
	}
	for _, record := range batch.Records {
		payload.Marks = append(payload.Marks, models.MarksRecordPayload{
			StudentID: record.StudentID,
			Marks:     strings.TrimSpace(record.Marks),
			Remarks:   record.Remarks,
		})
	}

	query := url.Values{}
	query.Set("examScId", batch.Session.ExamScID)
	return c.submit(ctx, "submitExamMarks", query, payload, batch)
}

func (c *SchoolAPIClient) SubmitAttendance(ctx context.Context, batch *models.SubmissionBatch) (*models.SinkResult, error) {
	if batch.Session.SectionID == "" || batch.Session.AttendanceDate == "" {
		return nil, fmt.Errorf("%w: section id and attendance date", ErrMissingSelector)
	}

	payload := models.AttendanceSubmissionPayload{
		SectionID:      batch.Session.SectionID,
		AttendanceDate: batch.Session.AttendanceDate,
		Records:        make([]models.AttendanceRecordPayload, 0, len(batch.Records)),
	}
	for _, record := range batch.Records {
		payload.Records = append(payload.Records, models.AttendanceRecordPayload{
			StudentID: record.StudentID,
			Status:    record.Status,
		})
	}

	return c.submit(ctx, "submitAttendance", nil, payload, batch)
}

func (c *SchoolAPIClient) submit(ctx context.Context, path string, query url.Values, payload interface{}, batch *models.SubmissionBatch) (*models.SinkResult, error) {
	var resp models.SinkResponse
	status, err := c.do(ctx, http.MethodPost, path, query, payload, &resp)
	if err != nil {
		c.logger.Warn("Page submission request failed",
			"path", path,
			"workflow_id", batch.WorkflowID,
			"page", batch.PageIndex,
			"error", err)
		return nil, err
	}

	result := &models.SinkResult{Success: true, Message: resp.Message}
	switch {
	case status < 200 || status > 299:
		result.Success = false
		if result.Message == "" {
			result.Message = fmt.Sprintf("server returned %d %s", status, http.StatusText(status))
		}
	case resp.Success != nil:
		result.Success = *resp.Success
	case resp.OK != nil:
		result.Success = *resp.OK
	}

	c.logger.Info("Page submission answered",
		"path", path,
		"workflow_id", batch.WorkflowID,
		"page", batch.PageIndex,
		"is_final", batch.IsFinal,
		"status_code", status,
		"success", result.Success)
	return result, nil
}

// do performs the request and decodes a JSON body into out. Non-2xx answers are
// returned with their status code; an empty body leaves out untouched.
func (c *SchoolAPIClient) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) (int, error) {
	endpoint := c.baseURL.JoinPath(path)
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			// error pages are often not JSON
			return resp.StatusCode, nil
		}
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}
