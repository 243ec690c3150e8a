package handler

import (
	"net/http"
	"strconv"

	"salesadmin/internal/middleware"
	"salesadmin/internal/model"
	"salesadmin/internal/service"
	"salesadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
}

func NewWorkflowHandler(workflowService service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	wf := router.Group("/api/workflow")
	{
		wf.POST("/trigger", middleware.RequirePermission(model.PermScrapingRun), h.Trigger)
		wf.GET("/status", middleware.RequirePermission(model.PermLogsView), h.Status)
		wf.GET("/schedule-status", middleware.Authenticated(), h.ScheduleStatus)
		wf.GET("/logs", middleware.RequirePermission(model.PermLogsView), h.JobLogs)
	}
}

// Trigger dispatches the scraping workflow
// @Summary      Trigger scraping
// @Description  Brands must be within the caller's allowed brands; an empty list means all of them
// @Tags         workflow
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TriggerRequest  true  "Date and brands"
// @Success      200      {object}  response.Response{data=service.TriggerResult}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/workflow/trigger [post]
func (h *WorkflowHandler) Trigger(c *gin.Context) {
	claims, ok := actor(c)
	if !ok {
		return
	}

	var req service.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.workflowService.Trigger(c.Request.Context(), claims, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Status returns the latest run with its jobs
// @Summary      Latest workflow run
// @Tags         workflow
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.WorkflowStatus}
// @Router       /api/workflow/status [get]
func (h *WorkflowHandler) Status(c *gin.Context) {
	res, err := h.workflowService.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ScheduleStatus reports today's scheduled run
// @Summary      Today's scheduled run
// @Tags         workflow
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.ScheduleStatus}
// @Router       /api/workflow/schedule-status [get]
func (h *WorkflowHandler) ScheduleStatus(c *gin.Context) {
	res, err := h.workflowService.ScheduleStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// JobLogs returns the parsed log of one job
// @Summary      Job log
// @Tags         workflow
// @Security     BearerAuth
// @Produce      json
// @Param        jobId  query     int  true  "Job ID"
// @Success      200    {object}  response.Response{data=[]github.LogLine}
// @Failure      400    {object}  response.Response
// @Router       /api/workflow/logs [get]
func (h *WorkflowHandler) JobLogs(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Query("jobId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "jobId is required"))
		return
	}

	lines, err := h.workflowService.JobLogs(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, lines))
}
