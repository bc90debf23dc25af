package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/validator"
)

// Sink accepts one page worth of records. Implementations must treat resubmission
// of the same entities as an overwrite.
type Sink interface {
	SubmitPage(ctx context.Context, batch *models.SubmissionBatch) (*models.SinkResult, error)
}

type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateSubmitting   State = "submitting"
	StatePageAdvanced State = "page_advanced"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
	StateEmpty        State = "empty"
)

const DefaultSubmitTimeout = 15 * time.Second

type Options struct {
	WorkflowID    string
	PageSize      int
	SubmitTimeout time.Duration
}

type Option func(*Options)

func WithWorkflowID(id string) Option {
	return func(o *Options) { o.WorkflowID = id }
}

func WithPageSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.PageSize = size
		}
	}
}

// WithSubmitTimeout bounds each remote call. Zero disables the bound.
func WithSubmitTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.SubmitTimeout = timeout }
}

// Outcome describes what a submit attempt did. Message is the single user-facing text.
type Outcome struct {
	Transition State                   `json:"transition"`
	State      State                   `json:"state"`
	PageIndex  int                     `json:"page_index"`
	TotalPages int                     `json:"total_pages"`
	IsFinal    bool                    `json:"is_final"`
	Exit       bool                    `json:"exit"`
	Message    string                  `json:"message"`
	Summary    *models.Summary         `json:"summary,omitempty"`
	Batch      *models.SubmissionBatch `json:"-"`
	SinkReply  string                  `json:"sink_reply,omitempty"`
}

// PageView is what the UI renders for the current page
type PageView struct {
	WorkflowID string               `json:"workflow_id"`
	Kind       models.WorkflowKind  `json:"kind"`
	State      State                `json:"state"`
	PageIndex  int                  `json:"page_index"`
	TotalPages int                  `json:"total_pages"`
	PageSize   int                  `json:"page_size"`
	RosterSize int                  `json:"roster_size"`
	Entities   []models.RosterEntry `json:"entities"`
	Values     models.FieldValues   `json:"values"`
	Complete   bool                 `json:"complete"`
}

// FieldUpdate is one user edit
type FieldUpdate struct {
	EntityID string
	Field    string
	Value    string
}

// Coordinator runs the paged submission state machine for one workflow.
// Pages only advance after the sink acknowledges them.
type Coordinator struct {
	mu sync.Mutex

	id      string
	kind    models.WorkflowKind
	session models.SessionContext
	sink    Sink
	timeout time.Duration

	roster     []models.RosterEntry
	members    map[string]struct{}
	pageSize   int
	pageIndex  int
	totalPages int

	state   State
	values  models.FieldValues
	summary models.Summary
	closed  bool

	// memoized completeness of the current page, nil when stale
	complete *bool
}

func NewCoordinator(kind models.WorkflowKind, session models.SessionContext, roster []models.RosterEntry, sink Sink, opts ...Option) *Coordinator {
	options := Options{PageSize: DefaultPageSize, SubmitTimeout: DefaultSubmitTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	c := &Coordinator{
		id:       options.WorkflowID,
		kind:     kind,
		session:  session,
		sink:     sink,
		timeout:  options.SubmitTimeout,
		pageSize: options.PageSize,
	}
	c.load(roster)
	return c
}

func (c *Coordinator) load(roster []models.RosterEntry) {
	c.roster = append([]models.RosterEntry(nil), roster...)
	c.members = make(map[string]struct{}, len(roster))
	for _, entry := range roster {
		c.members[entry.EntityID] = struct{}{}
	}
	c.totalPages = ComputeTotalPages(len(c.roster), c.pageSize)
	c.pageIndex = 1
	c.values = models.FieldValues{}
	c.summary = models.NewSummary(c.kind)
	c.complete = nil
	if c.totalPages == 0 {
		c.state = StateEmpty
	} else {
		c.state = StateIdle
	}
}

func (c *Coordinator) ID() string                { return c.id }
func (c *Coordinator) Kind() models.WorkflowKind { return c.kind }

func (c *Coordinator) Session() models.SessionContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) PageIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageIndex
}

func (c *Coordinator) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

func (c *Coordinator) CurrentPage() []models.RosterEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SliceForPage(c.roster, c.pageIndex, c.pageSize)
}

// FieldValues returns a copy of every pending value
func (c *Coordinator) FieldValues() models.FieldValues {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Clone()
}

func (c *Coordinator) Summary() models.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary.Clone()
}

func (c *Coordinator) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// PageComplete reports whether the current page can be submitted
func (c *Coordinator) PageComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCompleteLocked()
}

func (c *Coordinator) pageCompleteLocked() bool {
	if c.complete == nil {
		complete := c.totalPages > 0 &&
			validator.PageIsComplete(SliceForPage(c.roster, c.pageIndex, c.pageSize), c.values, c.kind.RequiredFields())
		c.complete = &complete
	}
	return *c.complete
}

func (c *Coordinator) View() PageView {
	c.mu.Lock()
	defer c.mu.Unlock()

	entities := SliceForPage(c.roster, c.pageIndex, c.pageSize)
	values := make(models.FieldValues, len(entities))
	for _, entity := range entities {
		if entry, ok := c.values[entity.EntityID]; ok {
			values[entity.EntityID] = entry
		}
	}

	return PageView{
		WorkflowID: c.id,
		Kind:       c.kind,
		State:      c.state,
		PageIndex:  c.pageIndex,
		TotalPages: c.totalPages,
		PageSize:   c.pageSize,
		RosterSize: len(c.roster),
		Entities:   entities,
		Values:     values.Clone(),
		Complete:   c.pageCompleteLocked(),
	}
}

func (c *Coordinator) editableLocked() error {
	switch {
	case c.closed:
		return ErrWorkflowClosed
	case c.state == StateSubmitting:
		return ErrSubmitInProgress
	case c.state == StateCompleted:
		return ErrWorkflowCompleted
	case c.state == StateEmpty:
		return ErrEmptyRoster
	}
	return nil
}

// SetField records one user edit
func (c *Coordinator) SetField(entityID, field, value string) error {
	return c.SetFields([]FieldUpdate{{EntityID: entityID, Field: field, Value: value}})
}

// SetFields applies all updates or none of them
func (c *Coordinator) SetFields(updates []FieldUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}
	for _, u := range updates {
		if _, ok := c.members[u.EntityID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEntity, u.EntityID)
		}
		if !c.kind.AllowsField(u.Field) {
			return fmt.Errorf("%w: %s", ErrUnknownField, u.Field)
		}
	}

	for _, u := range updates {
		value := u.Value
		switch u.Field {
		case models.FieldStatus:
			if status, ok := models.ParseAttendanceStatus(value); ok {
				value = string(status)
			}
		case models.FieldMarks:
			value = models.NormalizeMarks(value)
		}
		c.values[u.EntityID] = c.values[u.EntityID].With(u.Field, value)
	}
	if len(updates) > 0 {
		c.complete = nil
	}
	return nil
}

// Submit validates the current page and, when complete, sends it to the sink.
// On failure nothing local changes; on success the page advances or the workflow completes.
func (c *Coordinator) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		out := c.outcomeLocked(c.state, messageFor(err))
		c.mu.Unlock()
		return out, err
	}

	c.state = StateValidating
	entities := SliceForPage(c.roster, c.pageIndex, c.pageSize)
	if failure := validator.CheckPage(entities, c.values, c.kind.RequiredFields()); failure != nil {
		c.state = StateIdle
		complete := false
		c.complete = &complete
		out := c.outcomeLocked(StateIdle, c.validationMessage(failure))
		c.mu.Unlock()
		return out, failure
	}

	batch := c.buildBatchLocked(entities)
	c.state = StateSubmitting
	sink, timeout := c.sink, c.timeout
	c.mu.Unlock()

	result, err := callSink(ctx, sink, timeout, batch)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		// torn down while the request was in flight
		return Outcome{Transition: StateFailed, State: c.state, Message: messageFor(ErrWorkflowClosed)}, ErrWorkflowClosed
	}

	if err != nil || result == nil || !result.Success {
		serverMessage := ""
		if result != nil {
			serverMessage = result.Message
		}
		subErr := newSubmissionError(batch.PageIndex, err, serverMessage)
		c.state = StateIdle
		out := c.outcomeLocked(StateFailed, fmt.Sprintf("Could not submit page %d: %s. Your entries were kept, please retry.", batch.PageIndex, subErr.Reason))
		out.Batch = batch
		out.SinkReply = serverMessage
		return out, subErr
	}

	c.summary.AddPage(batch.Records)
	c.complete = nil

	if batch.IsFinal {
		c.values = models.FieldValues{}
		c.pageIndex = 1
		c.state = StateCompleted
		summary := c.summary.Clone()
		out := c.outcomeLocked(StateCompleted, fmt.Sprintf("All %d pages submitted (%d records).", batch.TotalPages, summary.TotalRecords))
		out.IsFinal = true
		out.Exit = true
		out.Summary = &summary
		out.Batch = batch
		out.SinkReply = result.Message
		return out, nil
	}

	for _, entity := range entities {
		delete(c.values, entity.EntityID)
	}
	c.pageIndex = Advance(c.pageIndex)
	c.state = StateIdle
	out := c.outcomeLocked(StatePageAdvanced, fmt.Sprintf("Page %d of %d submitted.", batch.PageIndex, batch.TotalPages))
	out.Batch = batch
	out.SinkReply = result.Message
	return out, nil
}

func callSink(ctx context.Context, sink Sink, timeout time.Duration, batch *models.SubmissionBatch) (*models.SinkResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return sink.SubmitPage(ctx, batch)
}

func (c *Coordinator) buildBatchLocked(entities []models.RosterEntry) *models.SubmissionBatch {
	records := make([]models.SubmissionRecord, 0, len(entities))
	for _, entity := range entities {
		entry := c.values[entity.EntityID]
		record := models.SubmissionRecord{StudentID: entity.EntityID}
		switch c.kind {
		case models.WorkflowMarks:
			record.Marks = models.NormalizeMarks(entry.Marks)
			record.Remarks = entry.Remarks
		case models.WorkflowAttendance:
			status, _ := models.ParseAttendanceStatus(entry.Status)
			record.Status = string(status)
		}
		records = append(records, record)
	}

	return &models.SubmissionBatch{
		WorkflowID: c.id,
		Kind:       c.kind,
		Session:    c.session,
		PageIndex:  c.pageIndex,
		TotalPages: c.totalPages,
		IsFinal:    c.pageIndex == c.totalPages,
		Records:    records,
	}
}

func (c *Coordinator) outcomeLocked(transition State, message string) Outcome {
	return Outcome{
		Transition: transition,
		State:      c.state,
		PageIndex:  c.pageIndex,
		TotalPages: c.totalPages,
		Message:    message,
	}
}

func (c *Coordinator) validationMessage(failure *apperrors.ValidationError) string {
	name := failure.EntityID
	for _, entry := range c.roster {
		if entry.EntityID == failure.EntityID {
			name = entry.DisplayName
			break
		}
	}
	if failure.IsMissing() {
		return fmt.Sprintf("Please enter %s for %s before submitting.", failure.Field, name)
	}
	return fmt.Sprintf("Invalid %s for %s: %s.", failure.Field, name, failure.Message)
}

func messageFor(err error) string {
	switch err {
	case ErrSubmitInProgress:
		return "This page is already being submitted."
	case ErrWorkflowCompleted:
		return "All pages have already been submitted."
	case ErrEmptyRoster:
		return "There are no students to grade."
	case ErrWorkflowClosed:
		return "This workflow is no longer open."
	default:
		return err.Error()
	}
}

// Reset reloads the roster after a selector change and starts again from page 1
func (c *Coordinator) Reset(session models.SessionContext, roster []models.RosterEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrWorkflowClosed
	}
	if c.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	c.session = session
	c.load(roster)
	return nil
}

// Close tears the workflow down. A submission still in flight will not touch state.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.values = models.FieldValues{}
	c.complete = nil
}
