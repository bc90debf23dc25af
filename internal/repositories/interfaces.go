package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/workflow"
)

// ===== SHARED FILTER STRUCTS =====

type SubmissionFilters struct {
	WorkflowID  string               `json:"workflow_id"`
	SectionID   string               `json:"section_id"`
	Kind        *models.WorkflowKind `json:"kind"`
	SubmittedBy string               `json:"submitted_by"`
	DateFrom    *time.Time           `json:"date_from"`
	DateTo      *time.Time           `json:"date_to"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
	SortBy      string               `json:"sort_by"`    // "created_at", "page_index"
	SortOrder   string               `json:"sort_order"` // "asc", "desc"
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalize clamps paging and sorting to accepted values
func (f SubmissionFilters) Normalize() SubmissionFilters {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case "created_at", "page_index":
	default:
		f.SortBy = "created_at"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	return f
}

// ===== REPOSITORIES =====

// SubmissionRepository is the ledger of acknowledged pages
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.PageSubmission) error
	List(ctx context.Context, filters SubmissionFilters) ([]*models.PageSubmission, int64, error)
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.PageSubmission, error)
}

// SnapshotStore persists workflow sessions between requests
type SnapshotStore interface {
	Save(ctx context.Context, snapshot workflow.Snapshot) error
	Load(ctx context.Context, workflowID string) (*workflow.Snapshot, error)
	Delete(ctx context.Context, workflowID string) error
}
