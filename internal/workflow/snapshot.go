package workflow

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
)

// Snapshot is the persisted form of a coordinator between requests
type Snapshot struct {
	ID        string                `json:"id"`
	Kind      models.WorkflowKind   `json:"kind"`
	Session   models.SessionContext `json:"session"`
	Roster    []models.RosterEntry  `json:"roster"`
	PageSize  int                   `json:"page_size"`
	PageIndex int                   `json:"page_index"`
	State     State                 `json:"state"`
	Values    models.FieldValues    `json:"values"`
	Summary   models.Summary        `json:"summary"`
	SavedAt   time.Time             `json:"saved_at"`
}

// Snapshot captures the settled state. While a page is in flight the snapshot
// reflects the state before the attempt, which is also what a failure leaves behind.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if state == StateSubmitting || state == StateValidating {
		state = StateIdle
	}

	return Snapshot{
		ID:        c.id,
		Kind:      c.kind,
		Session:   c.session,
		Roster:    append([]models.RosterEntry(nil), c.roster...),
		PageSize:  c.pageSize,
		PageIndex: c.pageIndex,
		State:     state,
		Values:    c.values.Clone(),
		Summary:   c.summary.Clone(),
		SavedAt:   time.Now().UTC(),
	}
}

// Restore rebuilds a coordinator from a snapshot
func Restore(snap Snapshot, sink Sink, opts ...Option) (*Coordinator, error) {
	if !snap.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSnapshot, snap.Kind)
	}
	if snap.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page size %d", ErrInvalidSnapshot, snap.PageSize)
	}

	opts = append(opts, WithWorkflowID(snap.ID), WithPageSize(snap.PageSize))
	c := NewCoordinator(snap.Kind, snap.Session, snap.Roster, sink, opts...)

	switch snap.State {
	case StateIdle, StateCompleted, StateEmpty:
	default:
		return nil, fmt.Errorf("%w: state %q", ErrInvalidSnapshot, snap.State)
	}
	if c.totalPages == 0 && snap.State != StateEmpty {
		return nil, fmt.Errorf("%w: empty roster in state %q", ErrInvalidSnapshot, snap.State)
	}
	if c.totalPages > 0 && (snap.PageIndex < 1 || snap.PageIndex > c.totalPages) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidSnapshot, snap.PageIndex, c.totalPages)
	}

	if c.totalPages > 0 {
		c.pageIndex = snap.PageIndex
		c.state = snap.State
	}
	for id, entry := range snap.Values {
		if _, ok := c.members[id]; ok {
			c.values[id] = entry
		}
	}
	c.values = c.values.Clone()
	if snap.Summary.Kind == snap.Kind {
		c.summary = snap.Summary.Clone()
	}
	return c, nil
}
