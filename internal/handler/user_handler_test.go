package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/middleware"
	"salesadmin/internal/model"
	"salesadmin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserService implements the calls exercised here; anything else panics
// through the nil embedded interface.
type fakeUserService struct {
	service.UserService
	users     []service.UserResponse
	gotOffset int
	gotLimit  int
	resetErr  error
}

func (f *fakeUserService) Login(_ context.Context, req service.LoginRequest) (*service.TokenResponse, error) {
	if req.Password != "secret" {
		return nil, service.ErrInvalidCredentials
	}
	return &service.TokenResponse{Token: "access", RefreshToken: "refresh", User: service.UserResponse{Username: req.Username}}, nil
}

func (f *fakeUserService) Logout(context.Context, string) error { return nil }

func (f *fakeUserService) ListUsers(_ context.Context, offset, limit int) ([]service.UserResponse, int64, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.users, int64(len(f.users)), nil
}

func (f *fakeUserService) ResetPassword(context.Context, *auth.Claims, string) error {
	return f.resetErr
}

func cookieValue(resp *http.Response, name string) (string, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	r, _ := newRouter(t, NewUserHandler(&fakeUserService{}, time.Hour, 24*time.Hour))

	w := do(r, http.MethodPost, "/api/login", "", service.LoginRequest{Username: "kim", Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	access, ok := cookieValue(w.Result(), middleware.AccessTokenCookie)
	require.True(t, ok)
	assert.Equal(t, "access", access)
	refresh, ok := cookieValue(w.Result(), middleware.RefreshTokenCookie)
	require.True(t, ok)
	assert.Equal(t, "refresh", refresh)
}

func TestLogin_Failures(t *testing.T) {
	r, _ := newRouter(t, NewUserHandler(&fakeUserService{}, time.Hour, time.Hour))

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/login", "", map[string]string{"username": "kim"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/login", "", service.LoginRequest{Username: "kim", Password: "nope"}).Code)
}

func TestLogout_ClearsCookies(t *testing.T) {
	r, _ := newRouter(t, NewUserHandler(&fakeUserService{}, time.Hour, time.Hour))

	w := do(r, http.MethodPost, "/api/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.LessOrEqual(t, c.MaxAge, 0, c.Name)
	}
}

func TestListUsers_Paginates(t *testing.T) {
	svc := &fakeUserService{users: []service.UserResponse{{Username: "a"}, {Username: "b"}}}
	r, mint := newRouter(t, NewUserHandler(svc, time.Hour, time.Hour))

	w := do(r, http.MethodGet, "/api/users?page=3&limit=10", mint(model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, svc.gotOffset)
	assert.Equal(t, 10, svc.gotLimit)

	var body struct {
		Meta struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Meta.Page)
	assert.Equal(t, int64(2), body.Meta.Total)
}

func TestUserAdmin_RequiresUsersManage(t *testing.T) {
	r, mint := newRouter(t, NewUserHandler(&fakeUserService{}, time.Hour, time.Hour))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/users", mint(model.RoleUser), nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/users", mint(model.RoleSalesViewer), nil).Code)
}

func TestResetPassword_ProtectedUser(t *testing.T) {
	svc := &fakeUserService{resetErr: service.ErrProtectedUser}
	r, mint := newRouter(t, NewUserHandler(svc, time.Hour, time.Hour))

	w := do(r, http.MethodPost, "/api/users/some-id/reset-password", mint(model.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.ErrProtectedUser.Error(), decode(t, w).Error)
}

func TestListRoles(t *testing.T) {
	r, mint := newRouter(t, NewRoleHandler(service.NewRoleService()))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/roles", mint(model.RoleUser), nil).Code)

	w := do(r, http.MethodGet, "/api/roles", mint(model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roles []service.RoleResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &roles))
	require.Len(t, roles, 3)
	assert.Equal(t, model.RoleAdmin, roles[0].Name)
	assert.True(t, roles[0].AllBrands)
	assert.Equal(t, []string{model.PermSalesView}, roles[1].Permissions)
}
