package handler

import (
	"errors"
	"net/http"
	"net/url"

	"salesadmin/internal/cafe24"
	"salesadmin/internal/middleware"
	"salesadmin/internal/model"
	"salesadmin/internal/service"
	"salesadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// callbackExchangeFailed is the only error code the callback reports for a
// failed code exchange; the cause stays in the server log
const callbackExchangeFailed = "exchange_failed"

const needsAuthMessage = "Cafe24 인증이 필요합니다. 아래 버튼을 클릭하여 인증해주세요."

// NeedsAuthResponse tells the console to send the operator through Cafe24 OAuth
type NeedsAuthResponse struct {
	Success   bool   `json:"success"`
	NeedsAuth bool   `json:"needsAuth"`
	AuthURL   string `json:"authUrl"`
}

type SalesHandler struct {
	salesService service.SalesService
	adminURL     string
}

func NewSalesHandler(salesService service.SalesService, adminURL string) *SalesHandler {
	return &SalesHandler{salesService: salesService, adminURL: adminURL}
}

func (h *SalesHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Cafe24 redirects the browser here without a session
	router.GET("/api/cafe24/callback", h.Callback)

	cafe := router.Group("/api/cafe24")
	cafe.Use(middleware.RequirePermission(model.PermSalesView))
	{
		cafe.GET("/auth", h.AuthURL)
		cafe.GET("/status", h.Status)
	}

	router.GET("/api/sales", middleware.RequirePermission(model.PermSalesView), h.GetSales)
}

// GetSales returns the sales dashboard for a date range
// @Summary      Sales statistics
// @Description  Fetches Cafe24 orders for the range and aggregates them. A range of exactly today also carries yesterday's hourly series.
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        startDate   query     string  false  "YYYY-MM-DD, default today (KST)"
// @Param        endDate     query     string  false  "YYYY-MM-DD, default startDate"
// @Param        deviceType  query     string  false  "all, pc or mobile"
// @Param        sort        query     string  false  "date or amount, for recent orders"
// @Param        order       query     string  false  "asc or desc"
// @Success      200         {object}  response.Response{data=service.SalesReport}
// @Failure      400         {object}  response.Response
// @Failure      500         {object}  response.Response
// @Router       /api/sales [get]
func (h *SalesHandler) GetSales(c *gin.Context) {
	var q service.SalesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.salesService.Report(c.Request.Context(), q)
	if errors.Is(err, cafe24.ErrNeedsAuth) {
		res := response.Error(http.StatusOK, needsAuthMessage)
		res.Data = NeedsAuthResponse{Success: false, NeedsAuth: true, AuthURL: h.salesService.AuthURL()}
		c.JSON(http.StatusOK, res)
		return
	}
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			zap.L().Error("sales report failed", zap.Error(err))
			msg = "Failed to fetch sales data: " + msg
		}
		c.JSON(status, response.Error(status, msg))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// AuthURL returns the Cafe24 authorization URL
// @Summary      Cafe24 authorization URL
// @Tags         cafe24
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=NeedsAuthResponse}
// @Router       /api/cafe24/auth [get]
func (h *SalesHandler) AuthURL(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, NeedsAuthResponse{
		NeedsAuth: true,
		AuthURL:   h.salesService.AuthURL(),
	}))
}

// Status reports whether a usable Cafe24 token is stored
// @Summary      Cafe24 connection status
// @Tags         cafe24
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.Cafe24Status}
// @Router       /api/cafe24/status [get]
func (h *SalesHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.salesService.AuthStatus(c.Request.Context())))
}

// Callback completes the OAuth grant and sends the browser back to the console
// @Summary      Cafe24 OAuth callback
// @Tags         cafe24
// @Param        code   query  string  false  "Authorization code"
// @Param        error  query  string  false  "Error returned by Cafe24"
// @Success      302
// @Router       /api/cafe24/callback [get]
func (h *SalesHandler) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		c.Redirect(http.StatusFound, h.redirect("cafe24_error", e))
		return
	}

	if err := h.salesService.CompleteAuth(c.Request.Context(), c.Query("code")); err != nil {
		zap.L().Error("cafe24 authorization failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.redirect("cafe24_error", callbackExchangeFailed))
		return
	}

	c.Redirect(http.StatusFound, h.redirect("cafe24_auth", "success"))
}

func (h *SalesHandler) redirect(key, value string) string {
	u, err := url.Parse(h.adminURL)
	if err != nil {
		return h.adminURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
