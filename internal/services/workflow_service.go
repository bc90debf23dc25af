package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
	"github.com/SAP-F-2025/grading-workflow-service/internal/events"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"github.com/SAP-F-2025/grading-workflow-service/internal/validator"
	"github.com/SAP-F-2025/grading-workflow-service/internal/workflow"
	"github.com/google/uuid"
)

// WorkflowService hosts one coordinator per running workflow and is the only
// entry point the HTTP layer uses
type WorkflowService interface {
	Start(ctx context.Context, teacher models.Teacher, req *models.StartWorkflowRequest) (*workflow.PageView, error)
	Get(ctx context.Context, teacher models.Teacher, id string) (*workflow.PageView, error)
	UpdateEntries(ctx context.Context, teacher models.Teacher, id string, req *models.UpdateEntriesRequest) (*workflow.PageView, error)
	Submit(ctx context.Context, teacher models.Teacher, id string) (*SubmitResult, error)
	ChangeSelector(ctx context.Context, teacher models.Teacher, id string, req *models.ChangeSelectorRequest) (*workflow.PageView, error)
	Abandon(ctx context.Context, teacher models.Teacher, id string) error
	Summary(ctx context.Context, teacher models.Teacher, id string) (*WorkflowSummary, error)
	ListSubmissions(ctx context.Context, teacher models.Teacher, req *models.ListSubmissionsRequest) ([]*models.PageSubmission, int64, error)
}

// SubmitResult is returned for every submit attempt, including failed ones,
// so the caller always has the message to show
type SubmitResult struct {
	Outcome workflow.Outcome   `json:"outcome"`
	View    *workflow.PageView `json:"view"`
}

type WorkflowSummary struct {
	WorkflowID string                `json:"workflow_id"`
	Kind       models.WorkflowKind   `json:"kind"`
	State      workflow.State        `json:"state"`
	Session    models.SessionContext `json:"session"`
	Summary    models.Summary        `json:"summary"`
}

type WorkflowServiceConfig struct {
	DefaultPageSize int
	SubmitTimeout   time.Duration
}

type registryEntry struct {
	coordinator *workflow.Coordinator
	lastSeen    time.Time
}

type workflowService struct {
	mu       sync.Mutex
	registry map[string]*registryEntry

	roster    RosterProvider
	sink      workflow.Sink
	snapshots repositories.SnapshotStore
	ledger    repositories.SubmissionRepository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	config    WorkflowServiceConfig
	now       func() time.Time
}

func NewWorkflowService(
	roster RosterProvider,
	sink workflow.Sink,
	snapshots repositories.SnapshotStore,
	ledger repositories.SubmissionRepository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *ServiceLogger,
	config WorkflowServiceConfig,
) *workflowService {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = workflow.DefaultPageSize
	}
	return &workflowService{
		registry:  make(map[string]*registryEntry),
		roster:    roster,
		sink:      sink,
		snapshots: snapshots,
		ledger:    ledger,
		publisher: publisher,
		validator: validator,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// ===== OPERATIONS =====

func (s *workflowService) Start(ctx context.Context, teacher models.Teacher, req *models.StartWorkflowRequest) (view *workflow.PageView, err error) {
	op := s.logger.WithOperation(ctx, "start_workflow", teacher.ID)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	session := models.SessionContext{
		TeacherID:      teacher.ID,
		TeacherName:    teacher.Name,
		Organization:   teacher.Organization,
		SectionID:      req.SectionID,
		ExamScID:       req.ExamScID,
		SubjectID:      req.SubjectID,
		AttendanceDate: req.AttendanceDate,
	}

	roster, err := s.loadRoster(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}

	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = s.config.DefaultPageSize
	}

	id := uuid.NewString()
	op.ForWorkflow(id)
	c := workflow.NewCoordinator(req.Kind, session, roster, s.sink,
		workflow.WithWorkflowID(id),
		workflow.WithPageSize(pageSize),
		workflow.WithSubmitTimeout(s.config.SubmitTimeout),
	)

	s.mu.Lock()
	s.registry[id] = &registryEntry{coordinator: c, lastSeen: s.now()}
	s.mu.Unlock()

	s.persist(ctx, c)

	v := c.View()
	return &v, nil
}

func (s *workflowService) Get(ctx context.Context, teacher models.Teacher, id string) (*workflow.PageView, error) {
	c, err := s.lookup(ctx, teacher, id)
	if err != nil {
		return nil, err
	}
	v := c.View()
	return &v, nil
}

func (s *workflowService) UpdateEntries(ctx context.Context, teacher models.Teacher, id string, req *models.UpdateEntriesRequest) (view *workflow.PageView, err error) {
	op := s.logger.WithOperation(ctx, "update_entries", teacher.ID).ForWorkflow(id)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	c, err := s.lookup(ctx, teacher, id)
	if err != nil {
		return nil, err
	}

	if err := c.SetFields(toFieldUpdates(req.Entries)); err != nil {
		return nil, err
	}
	s.persist(ctx, c)

	v := c.View()
	return &v, nil
}

func toFieldUpdates(entries []models.EntryUpdate) []workflow.FieldUpdate {
	updates := make([]workflow.FieldUpdate, 0, len(entries))
	for _, entry := range entries {
		if entry.Marks != nil {
			updates = append(updates, workflow.FieldUpdate{EntityID: entry.EntityID, Field: models.FieldMarks, Value: *entry.Marks})
		}
		if entry.Remarks != nil {
			updates = append(updates, workflow.FieldUpdate{EntityID: entry.EntityID, Field: models.FieldRemarks, Value: *entry.Remarks})
		}
		if entry.Status != nil {
			updates = append(updates, workflow.FieldUpdate{EntityID: entry.EntityID, Field: models.FieldStatus, Value: *entry.Status})
		}
	}
	return updates
}

func (s *workflowService) Submit(ctx context.Context, teacher models.Teacher, id string) (result *SubmitResult, err error) {
	op := s.logger.WithOperation(ctx, "submit_page", teacher.ID).ForWorkflow(id)
	defer func() { op.LogResult(err) }()

	c, err := s.lookup(ctx, teacher, id)
	if err != nil {
		return nil, err
	}

	outcome, submitErr := c.Submit(ctx)
	v := c.View()
	result = &SubmitResult{Outcome: outcome, View: &v}

	var subErr *workflow.SubmissionError
	switch {
	case submitErr == nil:
		s.recordPage(ctx, outcome.Batch, outcome.SinkReply)
		s.publish(ctx, events.NewPageSubmittedEvent(outcome.Batch))
		if outcome.Exit && outcome.Summary != nil {
			s.publish(ctx, events.NewWorkflowCompletedEvent(id, c.Session(), *outcome.Summary))
		}
		s.persist(ctx, c)
	case errors.As(submitErr, &subErr):
		s.publish(ctx, events.NewSubmissionFailedEvent(id, c.Kind(), c.Session(), subErr.PageIndex, subErr.Reason))
	}

	return result, submitErr
}

func (s *workflowService) ChangeSelector(ctx context.Context, teacher models.Teacher, id string, req *models.ChangeSelectorRequest) (view *workflow.PageView, err error) {
	op := s.logger.WithOperation(ctx, "change_selector", teacher.ID).ForWorkflow(id)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	c, err := s.lookup(ctx, teacher, id)
	if err != nil {
		return nil, err
	}

	session := c.Session()
	session.SectionID = req.SectionID
	session.SubjectID = req.SubjectID
	switch c.Kind() {
	case models.WorkflowMarks:
		if req.ExamScID == "" {
			return nil, NewBusinessRuleError(RuleSelectorMismatch, "exam_sc_id is required for a marks workflow",
				map[string]interface{}{"kind": c.Kind(), "section_id": req.SectionID})
		}
		session.ExamScID = req.ExamScID
	case models.WorkflowAttendance:
		if req.AttendanceDate == "" {
			return nil, NewBusinessRuleError(RuleSelectorMismatch, "attendance_date is required for an attendance workflow",
				map[string]interface{}{"kind": c.Kind(), "section_id": req.SectionID})
		}
		session.AttendanceDate = req.AttendanceDate
	}

	// a selector change always reads the current enrolment
	if invalidator, ok := s.roster.(RosterInvalidator); ok {
		if err := invalidator.Invalidate(ctx, req.SectionID); err != nil {
			s.logger.Logger().Warn("Failed to invalidate cached roster", "section_id", req.SectionID, "error", err)
		}
	}

	roster, err := s.loadRoster(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := c.Reset(session, roster); err != nil {
		return nil, err
	}
	s.persist(ctx, c)

	v := c.View()
	return &v, nil
}

func (s *workflowService) Abandon(ctx context.Context, teacher models.Teacher, id string) (err error) {
	op := s.logger.WithOperation(ctx, "abandon_workflow", teacher.ID).ForWorkflow(id)
	defer func() { op.LogResult(err) }()

	c, err := s.lookup(ctx, teacher, id)
	if err != nil {
		return err
	}
	c.Close()

	s.mu.Lock()
	delete(s.registry, id)
	s.mu.Unlock()

	if err := s.snapshots.Delete(ctx, id); err != nil {
		s.logger.Logger().Warn("Failed to delete workflow snapshot", "workflow_id", id, "error", err)
	}
	return nil
}

func (s *workflowService) Summary(ctx context.Context, teacher models.Teacher, id string) (*WorkflowSummary, error) {
	c, err := s.lookup(ctx, teacher, id)
	if err != nil {
		return nil, err
	}
	return &WorkflowSummary{
		WorkflowID: id,
		Kind:       c.Kind(),
		State:      c.State(),
		Session:    c.Session(),
		Summary:    c.Summary(),
	}, nil
}

func (s *workflowService) ListSubmissions(ctx context.Context, teacher models.Teacher, req *models.ListSubmissionsRequest) ([]*models.PageSubmission, int64, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, 0, err
	}

	filters := repositories.SubmissionFilters{
		WorkflowID:  req.WorkflowID,
		SectionID:   req.SectionID,
		SubmittedBy: teacher.ID,
		Limit:       req.Limit,
		Offset:      req.Offset,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}
	if req.Kind != "" {
		kind := req.Kind
		filters.Kind = &kind
	}
	if err := applyDateRange(&filters, req.DateFrom, req.DateTo); err != nil {
		return nil, 0, err
	}

	submissions, total, err := s.ledger.List(ctx, filters.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

// EvictIdle drops coordinators not touched for maxIdle from memory. Their
// snapshots stay in the store, so a later request restores them.
func (s *workflowService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, entry := range s.registry {
		if entry.lastSeen.Before(cutoff) && entry.coordinator.State() != workflow.StateSubmitting {
			delete(s.registry, id)
			evicted++
		}
	}
	return evicted
}

// RunJanitor evicts idle coordinators every interval until ctx is done
func (s *workflowService) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				s.logger.Logger().Info("Evicted idle workflows", "count", n)
			}
		}
	}
}

// ===== HELPERS =====

const dateLayout = "2006-01-02"

// applyDateRange turns whole-day bounds into created_at bounds. date_to is inclusive.
func applyDateRange(filters *repositories.SubmissionFilters, from, to string) error {
	if from != "" {
		start, err := time.Parse(dateLayout, from)
		if err != nil {
			return apperrors.ValidationErrors{*apperrors.NewValidationError("date_from", "date_from must be YYYY-MM-DD", from)}
		}
		filters.DateFrom = &start
	}
	if to != "" {
		day, err := time.Parse(dateLayout, to)
		if err != nil {
			return apperrors.ValidationErrors{*apperrors.NewValidationError("date_to", "date_to must be YYYY-MM-DD", to)}
		}
		end := day.Add(24*time.Hour - time.Nanosecond)
		filters.DateTo = &end
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateTo.Before(*filters.DateFrom) {
		return apperrors.ValidationErrors{*apperrors.NewValidationError("date_to", "date_to must not be before date_from", to)}
	}
	return nil
}

func (s *workflowService) loadRoster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	roster, err := s.roster.GetStudentsBySection(ctx, sectionID)
	if err != nil {
		var dle *DataLoadError
		if errors.As(err, &dle) {
			return nil, err
		}
		return nil, &DataLoadError{SectionID: sectionID, Err: err}
	}
	return roster, nil
}

// lookup finds a live coordinator, restoring it from its snapshot when this
// process has not seen it yet
func (s *workflowService) lookup(ctx context.Context, teacher models.Teacher, id string) (*workflow.Coordinator, error) {
	s.mu.Lock()
	entry, ok := s.registry[id]
	if ok {
		entry.lastSeen = s.now()
	}
	s.mu.Unlock()

	var c *workflow.Coordinator
	if ok {
		c = entry.coordinator
	} else {
		restored, err := s.restore(ctx, id)
		if err != nil {
			return nil, err
		}
		c = restored
	}

	if c.Session().TeacherID != teacher.ID {
		return nil, ErrWorkflowAccessDenied
	}
	return c, nil
}

func (s *workflowService) restore(ctx context.Context, id string) (*workflow.Coordinator, error) {
	snap, err := s.snapshots.Load(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
	}

	c, err := workflow.Restore(*snap, s.sink, workflow.WithSubmitTimeout(s.config.SubmitTimeout))
	if err != nil {
		s.logger.Logger().Warn("Discarding unusable workflow snapshot", "workflow_id", id, "error", err)
		return nil, ErrWorkflowNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have restored it first
	if existing, ok := s.registry[id]; ok {
		existing.lastSeen = s.now()
		return existing.coordinator, nil
	}
	s.registry[id] = &registryEntry{coordinator: c, lastSeen: s.now()}
	return c, nil
}

func (s *workflowService) persist(ctx context.Context, c *workflow.Coordinator) {
	if err := s.snapshots.Save(ctx, c.Snapshot()); err != nil {
		s.logger.Logger().Warn("Failed to save workflow snapshot", "workflow_id", c.ID(), "error", err)
	}
}

// recordPage writes the ledger row. The page is already acknowledged remotely,
// so a ledger failure is logged and the submit still succeeds.
func (s *workflowService) recordPage(ctx context.Context, batch *models.SubmissionBatch, sinkMessage string) {
	if batch == nil {
		return
	}

	records, err := json.Marshal(batch.Records)
	if err != nil {
		s.logger.Logger().Error("Failed to encode ledger records", "workflow_id", batch.WorkflowID, "error", err)
		return
	}

	submission := &models.PageSubmission{
		WorkflowID:     batch.WorkflowID,
		Kind:           batch.Kind,
		SectionID:      batch.Session.SectionID,
		ExamScID:       batch.Session.ExamScID,
		AttendanceDate: batch.Session.AttendanceDate,
		PageIndex:      batch.PageIndex,
		TotalPages:     batch.TotalPages,
		IsFinal:        batch.IsFinal,
		SubmittedBy:    batch.Session.TeacherID,
		RecordCount:    len(batch.Records),
		Records:        records,
		SinkMessage:    sinkMessage,
	}
	if err := s.ledger.Create(ctx, submission); err != nil {
		s.logger.Logger().Error("Failed to record page submission",
			"workflow_id", batch.WorkflowID,
			"page", batch.PageIndex,
			"error", err)
	}
}

func (s *workflowService) publish(ctx context.Context, event *events.WorkflowEvent) {
	if err := s.publisher.PublishWorkflowEvent(ctx, event); err != nil {
		s.logger.Logger().Warn("Failed to publish workflow event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}
