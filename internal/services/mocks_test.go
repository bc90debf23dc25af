package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/cache"
	"github.com/SAP-F-2025/grading-workflow-service/internal/events"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"github.com/SAP-F-2025/grading-workflow-service/internal/validator"
	"github.com/stretchr/testify/mock"
)

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.PageSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.PageSubmission, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.PageSubmission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.PageSubmission, error) {
	args := m.Called(ctx, workflowID)
	return args.Get(0).([]*models.PageSubmission), args.Error(1)
}

// MockRosterProvider is a mock implementation of RosterProvider
type MockRosterProvider struct {
	mock.Mock
}

func (m *MockRosterProvider) GetStudentsBySection(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	args := m.Called(ctx, sectionID)
	roster, _ := args.Get(0).([]models.RosterEntry)
	return roster, args.Error(1)
}

// MockSink is a mock implementation of workflow.Sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) SubmitPage(ctx context.Context, batch *models.SubmissionBatch) (*models.SinkResult, error) {
	args := m.Called(ctx, batch)
	result, _ := args.Get(0).(*models.SinkResult)
	return result, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeRoster(n int) []models.RosterEntry {
	roster := make([]models.RosterEntry, n)
	for i := range roster {
		roster[i] = models.RosterEntry{
			EntityID:    fmt.Sprintf("s%02d", i+1),
			DisplayName: fmt.Sprintf("Student %02d", i+1),
		}
	}
	return roster
}

type serviceFixture struct {
	service   *workflowService
	roster    *MockRosterProvider
	sink      *MockSink
	ledger    *MockSubmissionRepository
	publisher *events.MockEventPublisher
	cache     *cache.MemoryCache
	snapshots repositories.SnapshotStore
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		roster:    new(MockRosterProvider),
		sink:      new(MockSink),
		ledger:    new(MockSubmissionRepository),
		publisher: events.NewMockEventPublisher(discardLogger()),
		cache:     cache.NewMemoryCache(),
	}
	f.snapshots = repositories.NewSnapshotStore(f.cache, time.Hour)
	f.service = f.newService()
	return f
}

// newService builds another service instance over the same stores, like a second process
func (f *serviceFixture) newService() *workflowService {
	logger := NewServiceLogger(discardLogger(), LogConfig{Service: "grading-workflow-service", Component: "workflow"})
	return NewWorkflowService(f.roster, f.sink, f.snapshots, f.ledger, f.publisher, validator.New(), logger,
		WorkflowServiceConfig{DefaultPageSize: 10, SubmitTimeout: time.Second})
}

func ptr(s string) *string {
	return &s
}
