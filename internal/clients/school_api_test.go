package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *SchoolAPIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewSchoolAPIClient(SchoolAPIConfig{
		BaseURL: server.URL + "/api/",
		Token:   "secret-token",
		Timeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestNewSchoolAPIClient_RejectsBadURL(t *testing.T) {
	_, err := NewSchoolAPIClient(SchoolAPIConfig{BaseURL: "not a url"}, slog.Default())
	assert.Error(t, err)
}

func TestGetStudentsBySection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/getStudentBySection", r.URL.Path)
		assert.Equal(t, "sec-7", r.URL.Query().Get("sectionId"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[
			{"id":"s1","firstName":"Amina","lastName":"Okello"},
			{"id":"","firstName":"Ghost"},
			{"id":"s2","firstName":"Brian","lastName":""}
		]}`))
	})

	roster, err := client.GetStudentsBySection(context.Background(), "sec-7")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, models.RosterEntry{EntityID: "s1", DisplayName: "Amina Okello"}, roster[0])
	assert.Equal(t, "Brian", roster[1].DisplayName)
}

func TestGetStudentsBySection_Failures(t *testing.T) {
	t.Run("success false", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"message":"section archived"}`))
		})
		_, err := client.GetStudentsBySection(context.Background(), "sec-1")
		assert.ErrorIs(t, err, ErrRosterUnavailable)
		assert.Contains(t, err.Error(), "section archived")
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("<html>oops</html>"))
		})
		_, err := client.GetStudentsBySection(context.Background(), "sec-1")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})

	t.Run("missing section", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := client.GetStudentsBySection(context.Background(), " ")
		assert.ErrorIs(t, err, ErrMissingSelector)
	})
}

func TestSubmitMarks(t *testing.T) {
	var received models.MarksSubmissionPayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/submitExamMarks", r.URL.Path)
		assert.Equal(t, "exam-3", r.URL.Query().Get("examScId"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"ok":true,"message":"saved"}`))
	})

	batch := &models.SubmissionBatch{
		WorkflowID: "wf-1",
		Kind:       models.WorkflowMarks,
		Session:    models.SessionContext{TeacherID: "t-9", ExamScID: "exam-3"},
		PageIndex:  3,
		TotalPages: 3,
		IsFinal:    true,
		Records: []models.SubmissionRecord{
			{StudentID: "s1", Marks: " 57.5 ", Remarks: "steady"},
			{StudentID: "s2", Marks: "100"},
		},
	}

	result, err := client.SubmitPage(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "saved", result.Message)

	require.Len(t, received.Marks, 2)
	assert.Equal(t, "57.5", received.Marks[0].Marks)
	assert.Equal(t, "steady", received.Marks[0].Remarks)
	assert.Equal(t, "t-9", received.Metadata.SubmittedBy)
	assert.True(t, received.Metadata.IsMarksSubmitted)
}

func TestSubmitAttendance(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		success bool
		message string
	}{
		{"acknowledged", http.StatusOK, `{"success":true}`, true, ""},
		{"rejected", http.StatusOK, `{"success":false,"message":"date is locked"}`, false, "date is locked"},
		{"empty body", http.StatusNoContent, ``, true, ""},
		{"bad gateway", http.StatusBadGateway, `upstream down`, false, "server returned 502 Bad Gateway"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var received models.AttendanceSubmissionPayload
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/submitAttendance", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			batch := &models.SubmissionBatch{
				Kind:    models.WorkflowAttendance,
				Session: models.SessionContext{SectionID: "sec-2", AttendanceDate: "2026-10-16"},
				Records: []models.SubmissionRecord{{StudentID: "s1", Status: "LATE"}},
			}
			result, err := client.SubmitPage(context.Background(), batch)
			require.NoError(t, err)
			assert.Equal(t, tc.success, result.Success)
			assert.Equal(t, tc.message, result.Message)
			assert.Equal(t, "sec-2", received.SectionID)
			assert.Equal(t, "LATE", received.Records[0].Status)
		})
	}
}

func TestSubmit_TransportErrors(t *testing.T) {
	t.Run("invalid json on success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":`))
		})
		batch := &models.SubmissionBatch{
			Kind:    models.WorkflowMarks,
			Session: models.SessionContext{ExamScID: "e1"},
		}
		_, err := client.SubmitPage(context.Background(), batch)
		assert.Error(t, err)
	})

	t.Run("context deadline", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		batch := &models.SubmissionBatch{
			Kind:    models.WorkflowMarks,
			Session: models.SessionContext{ExamScID: "e1"},
		}
		_, err := client.SubmitPage(ctx, batch)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("missing exam id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := client.SubmitPage(context.Background(), &models.SubmissionBatch{Kind: models.WorkflowMarks})
		assert.ErrorIs(t, err, ErrMissingSelector)
	})
}
