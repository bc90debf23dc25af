package postgres

import (
	"fmt"

	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"gorm.io/gorm"
)

// applySubmissionFilters narrows a ledger query. Paging is applied separately so
// the same query can be counted first.
func applySubmissionFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.WorkflowID != "" {
		query = query.Where("workflow_id = ?", filters.WorkflowID)
	}
	if filters.SectionID != "" {
		query = query.Where("section_id = ?", filters.SectionID)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.SubmittedBy != "" {
		query = query.Where("submitted_by = ?", filters.SubmittedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func applyPaginationAndSort(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	filters = filters.Normalize()
	return query.
		Order(fmt.Sprintf("%s %s", filters.SortBy, filters.SortOrder)).
		Order("id asc").
		Limit(filters.Limit).
		Offset(filters.Offset)
}
