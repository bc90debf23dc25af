package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"github.com/SAP-F-2025/grading-workflow-service/internal/services"
	"github.com/SAP-F-2025/grading-workflow-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type WorkflowHandler struct {
	BaseHandler
	workflowService services.WorkflowService
	exportService   services.ExportService
}

func NewWorkflowHandler(
	workflowService services.WorkflowService,
	exportService services.ExportService,
	logger utils.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		BaseHandler:     NewBaseHandler(logger),
		workflowService: workflowService,
		exportService:   exportService,
	}
}

// StartWorkflow loads the roster and opens a new paged workflow
// @Router /workflows [post]
func (h *WorkflowHandler) StartWorkflow(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}

	var req models.StartWorkflowRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Starting workflow", "kind", req.Kind, "section_id", req.SectionID)

	view, err := h.workflowService.Start(c.Request.Context(), teacher, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	message := "Workflow started"
	if view.RosterSize == 0 {
		message = "There are no students to grade."
	}
	h.RespondWithSuccess(c, http.StatusCreated, message, view, "workflow_id", view.WorkflowID)
}

// GetWorkflow returns the current page view
// @Router /workflows/{id} [get]
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.workflowService.Get(c.Request.Context(), teacher, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Workflow retrieved", Data: view})
}

// UpdateEntries records entered values for entities of the workflow
// @Router /workflows/{id}/entries [put]
func (h *WorkflowHandler) UpdateEntries(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.UpdateEntriesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.workflowService.UpdateEntries(c.Request.Context(), teacher, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Entries saved", Data: view})
}

// SubmitPage validates and submits the current page
// @Router /workflows/{id}/submit [post]
func (h *WorkflowHandler) SubmitPage(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Submitting page", "workflow_id", id)

	result, err := h.workflowService.Submit(c.Request.Context(), teacher, id)
	if err != nil {
		if result == nil {
			h.handleServiceError(c, err)
			return
		}
		status, code := statusFor(err)
		h.RespondWithError(c, status, code, result.Outcome.Message, err, result)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, result.Outcome.Message, result,
		"workflow_id", id,
		"page", result.Outcome.PageIndex,
		"transition", result.Outcome.Transition)
}

// ChangeSelector switches section, exam or date and restarts from page 1
// @Router /workflows/{id}/selector [put]
func (h *WorkflowHandler) ChangeSelector(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.ChangeSelectorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.workflowService.ChangeSelector(c.Request.Context(), teacher, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Selection changed", view, "workflow_id", id, "section_id", req.SectionID)
}

// AbandonWorkflow discards the workflow and its pending values
// @Router /workflows/{id} [delete]
func (h *WorkflowHandler) AbandonWorkflow(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.workflowService.Abandon(c.Request.Context(), teacher, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSummary returns what has been acknowledged so far
// @Router /workflows/{id}/summary [get]
func (h *WorkflowHandler) GetSummary(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	summary, err := h.workflowService.Summary(c.Request.Context(), teacher, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Summary retrieved", Data: summary})
}

// ExportSummary downloads the summary and submitted records as a spreadsheet
// @Router /workflows/{id}/summary/export [get]
func (h *WorkflowHandler) ExportSummary(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	data, filename, err := h.exportService.ExportSummaryToExcel(c.Request.Context(), teacher, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ListSubmissions queries the ledger of acknowledged pages of the teacher
// @Router /submissions [get]
func (h *WorkflowHandler) ListSubmissions(c *gin.Context) {
	teacher, ok := h.requireTeacher(c)
	if !ok {
		return
	}

	var req models.ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid query parameters", err, err.Error())
		return
	}

	submissions, total, err := h.workflowService.ListSubmissions(c.Request.Context(), teacher, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters := repositories.SubmissionFilters{Limit: req.Limit, Offset: req.Offset}.Normalize()
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Submissions retrieved",
		Data: ListResponse{
			Items:  submissions,
			Total:  total,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		},
	})
}

// ===== HELPERS =====

func (h *WorkflowHandler) requireTeacher(c *gin.Context) (models.Teacher, bool) {
	teacher, ok := currentTeacher(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
			Code:    "unauthorized",
		})
	}
	return teacher, ok
}

func (h *WorkflowHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
			Code:    "bad_request",
		})
		return false
	}
	return true
}

// statusFor maps service errors to an HTTP status and a stable error code
func statusFor(err error) (int, string) {
	switch {
	case services.IsValidation(err):
		return http.StatusUnprocessableEntity, "validation_failed"
	case services.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case services.IsUnauthorized(err):
		return http.StatusForbidden, "forbidden"
	case services.IsConflict(err):
		return http.StatusConflict, "conflict"
	case services.IsSubmissionFailure(err):
		return http.StatusBadGateway, "submission_failed"
	case services.IsDataLoad(err):
		return http.StatusBadGateway, "data_load_failed"
	case services.IsBusinessRule(err):
		return http.StatusUnprocessableEntity, "business_rule"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *WorkflowHandler) handleServiceError(c *gin.Context, err error) {
	status, code := statusFor(err)

	// Handle custom error types first
	var validationErrors apperrors.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, status, code, "Validation failed", err, validationErrors)
		return
	}

	var entryError *apperrors.ValidationError
	if errors.As(err, &entryError) {
		h.RespondWithError(c, status, code, entryError.Error(), err, entryError)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, status, code, businessRuleError.Message, err, map[string]interface{}{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrWorkflowNotFound):
		h.RespondWithError(c, status, code, "Workflow not found", err)
	case errors.Is(err, services.ErrWorkflowAccessDenied):
		h.RespondWithError(c, status, code, "Access denied to workflow", err)
	case services.IsDataLoad(err):
		h.RespondWithError(c, status, code, "Could not load the student list, please try again.", err, err.Error())
	case status == http.StatusInternalServerError:
		h.RespondWithError(c, status, code, "Internal server error", err)
	default:
		h.RespondWithError(c, status, code, err.Error(), err)
	}
}
