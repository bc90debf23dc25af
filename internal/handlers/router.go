package handlers

import (
	"github.com/SAP-F-2025/grading-workflow-service/internal/services"
	"github.com/SAP-F-2025/grading-workflow-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// HandlerManager manages all HTTP handlers
type HandlerManager struct {
	workflowHandler *WorkflowHandler
}

// NewHandlerManager creates a new handler manager with all handlers
func NewHandlerManager(
	workflowService services.WorkflowService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		workflowHandler: NewWorkflowHandler(workflowService, exportService, logger),
	}
}

// SetupRoutes configures all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	if authMiddleware != nil {
		v1.Use(authMiddleware)
	}
	{
		// Workflow routes
		workflows := v1.Group("/workflows")
		{
			workflows.POST("", hm.workflowHandler.StartWorkflow)
			workflows.GET("/:id", hm.workflowHandler.GetWorkflow)
			workflows.DELETE("/:id", hm.workflowHandler.AbandonWorkflow)

			// Paging
			workflows.PUT("/:id/entries", hm.workflowHandler.UpdateEntries)
			workflows.POST("/:id/submit", hm.workflowHandler.SubmitPage)
			workflows.PUT("/:id/selector", hm.workflowHandler.ChangeSelector)

			// Results
			workflows.GET("/:id/summary", hm.workflowHandler.GetSummary)
			workflows.GET("/:id/summary/export", hm.workflowHandler.ExportSummary)
		}

		// Submission ledger
		v1.GET("/submissions", hm.workflowHandler.ListSubmissions)
	}
}
