package handler

import (
	"errors"
	"net/http"

	"salesadmin/internal/auth"
	"salesadmin/internal/middleware"
	"salesadmin/internal/service"
	"salesadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrLogNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefresh):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrProtectedUser), errors.Is(err, service.ErrBrandDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case service.IsNotConfigured(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// actor returns the authenticated caller, aborting with 401 when absent
func actor(c *gin.Context) (*auth.Claims, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User not found in context"))
		return nil, false
	}
	return claims, true
}
