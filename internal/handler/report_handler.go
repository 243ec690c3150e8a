package handler

import (
	"net/http"

	"salesadmin/internal/middleware"
	"salesadmin/internal/model"
	"salesadmin/internal/service"
	"salesadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/slack/send-hourly", middleware.RequireRole(model.RoleAdmin), h.SendHourly)
}

// SendHourly posts the hourly sales comparison to Slack
// @Summary      Send hourly Slack report
// @Description  Compares today's sales with yesterday up to the current KST hour and posts it to the hourly channel
// @Tags         slack
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.HourlyReportResult}
// @Failure      503  {object}  response.Response
// @Router       /api/slack/send-hourly [post]
func (h *ReportHandler) SendHourly(c *gin.Context) {
	claims, ok := actor(c)
	if !ok {
		return
	}

	res, err := h.reportService.SendHourly(c.Request.Context(), claims)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
