package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) *auth.Manager {
	t.Helper()
	m := auth.NewManager("test-secret", time.Hour)
	InitAuth(m, false)
	t.Cleanup(func() { InitAuth(nil, false) })
	return m
}

func tokenFor(t *testing.T, m *auth.Manager, role string) string {
	t.Helper()
	token, err := m.Issue(&model.User{ID: uuid.New(), Username: "u", Role: role}, nil)
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermission(t *testing.T) {
	m := setup(t)
	r := gin.New()
	r.GET("/sales", RequirePermission(model.PermSalesView), func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Role)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"user lacks permission", "Bearer " + tokenFor(t, m, model.RoleUser), http.StatusForbidden},
		{"sales viewer", "Bearer " + tokenFor(t, m, model.RoleSalesViewer), http.StatusOK},
		{"admin", "Bearer " + tokenFor(t, m, model.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sales", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, serve(r, req).Code)
		})
	}
}

func TestRequireRole_Cookie(t *testing.T) {
	m := setup(t)
	r := gin.New()
	r.POST("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokenFor(t, m, model.RoleAdmin)})
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokenFor(t, m, model.RoleSalesViewer)})
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}

func TestSetAndClearTokenCookies(t *testing.T) {
	r := gin.New()
	r.GET("/set", func(c *gin.Context) {
		SetTokenCookies(c, "a", "r", time.Hour, 24*time.Hour)
	})
	r.GET("/clear", ClearTokenCookies)

	cookies := serve(r, httptest.NewRequest(http.MethodGet, "/set", nil)).Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessTokenCookie, cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 86400, cookies[1].MaxAge)

	cookies = serve(r, httptest.NewRequest(http.MethodGet, "/clear", nil)).Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = serve(r, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
