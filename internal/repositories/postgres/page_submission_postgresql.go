package postgres

import (
	"context"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"gorm.io/gorm"
)

type PageSubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewPageSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &PageSubmissionPostgreSQL{db: db}
}

func (p PageSubmissionPostgreSQL) Create(ctx context.Context, submission *models.PageSubmission) error {
	return p.db.WithContext(ctx).Create(submission).Error
}

func (p PageSubmissionPostgreSQL) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.PageSubmission, int64, error) {
	var submissions []*models.PageSubmission
	var total int64

	// apply filter first
	query := p.db.WithContext(ctx).Model(&models.PageSubmission{})
	query = applySubmissionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applyPaginationAndSort(query, filters)

	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (p PageSubmissionPostgreSQL) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.PageSubmission, error) {
	var submissions []*models.PageSubmission
	if err := p.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("page_index asc").
		Order("created_at asc").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
