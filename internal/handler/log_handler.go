package handler

import (
	"net/http"

	"salesadmin/internal/middleware"
	"salesadmin/internal/model"
	"salesadmin/internal/service"
	"salesadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	logService service.LogService
}

func NewLogHandler(logService service.LogService) *LogHandler {
	return &LogHandler{logService: logService}
}

func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup) {
	exec := router.Group("/api/execution-logs")
	{
		exec.GET("", middleware.RequirePermission(model.PermLogsView), h.ListExecutionLogs)
		exec.POST("", middleware.RequirePermission(model.PermScrapingRun), h.AddExecutionLog)
		exec.PUT("", middleware.RequirePermission(model.PermScrapingRun), h.UpdateExecutionLog)
	}

	failures := router.Group("/api/schedule-failure-logs")
	{
		failures.GET("", middleware.RequirePermission(model.PermLogsView), h.ListScheduleFailures)
		failures.POST("", middleware.RequirePermission(model.PermScrapingRun), h.AddScheduleFailure)
		failures.PUT("", middleware.RequirePermission(model.PermScrapingRun), h.UpdateScheduleFailure)
	}
}

// ListExecutionLogs returns the newest scraping executions first
// @Summary      List execution logs
// @Tags         logs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ExecutionLog}
// @Router       /api/execution-logs [get]
func (h *LogHandler) ListExecutionLogs(c *gin.Context) {
	logs, err := h.logService.ListExecutionLogs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// AddExecutionLog records an execution started outside the trigger endpoint
// @Summary      Add execution log
// @Tags         logs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddExecutionLogRequest  true  "Execution"
// @Success      201      {object}  response.Response{data=model.ExecutionLog}
// @Failure      400      {object}  response.Response
// @Router       /api/execution-logs [post]
func (h *LogHandler) AddExecutionLog(c *gin.Context) {
	claims, ok := actor(c)
	if !ok {
		return
	}

	var req service.AddExecutionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	log, err := h.logService.AddExecutionLog(c.Request.Context(), claims, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, log))
}

// UpdateExecutionLog applies a partial update
// @Summary      Update execution log
// @Tags         logs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdateExecutionLogRequest  true  "Log id and fields"
// @Success      200      {object}  response.Response{data=model.ExecutionLog}
// @Failure      404      {object}  response.Response
// @Router       /api/execution-logs [put]
func (h *LogHandler) UpdateExecutionLog(c *gin.Context) {
	var req service.UpdateExecutionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	log, err := h.logService.UpdateExecutionLog(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, log))
}

// ListScheduleFailures returns failed scheduled runs, newest first
// @Summary      List schedule failure logs
// @Tags         logs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ScheduleFailureLog}
// @Router       /api/schedule-failure-logs [get]
func (h *LogHandler) ListScheduleFailures(c *gin.Context) {
	logs, err := h.logService.ListScheduleFailures(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// AddScheduleFailure records a failed scheduled run once
// @Summary      Add schedule failure log
// @Description  Returns 200 with the existing entry when the run was already recorded
// @Tags         logs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddScheduleFailureRequest  true  "Failed run"
// @Success      201      {object}  response.Response{data=model.ScheduleFailureLog}
// @Success      200      {object}  response.Response{data=model.ScheduleFailureLog}
// @Failure      400      {object}  response.Response
// @Router       /api/schedule-failure-logs [post]
func (h *LogHandler) AddScheduleFailure(c *gin.Context) {
	var req service.AddScheduleFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	log, created, err := h.logService.AddScheduleFailure(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, response.Success(status, log))
}

// UpdateScheduleFailure records the response to a failed run
// @Summary      Update schedule failure log
// @Description  Addressed by logId or scheduleRunId
// @Tags         logs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdateScheduleFailureRequest  true  "Log reference and fields"
// @Success      200      {object}  response.Response{data=model.ScheduleFailureLog}
// @Failure      404      {object}  response.Response
// @Router       /api/schedule-failure-logs [put]
func (h *LogHandler) UpdateScheduleFailure(c *gin.Context) {
	claims, ok := actor(c)
	if !ok {
		return
	}

	var req service.UpdateScheduleFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	log, err := h.logService.UpdateScheduleFailure(c.Request.Context(), claims, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, log))
}
