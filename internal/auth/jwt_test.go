package auth

import (
	"testing"
	"time"

	"salesadmin/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *model.User {
	return &model.User{
		ID:                 uuid.MustParse("4b1a3f3e-9c2d-4f5e-8a6b-7c8d9e0f1a2b"),
		Username:           "viewer",
		Role:               model.RoleSalesViewer,
		MustChangePassword: true,
	}
}

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.Issue(testUser(), []string{"바르너"})
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "4b1a3f3e-9c2d-4f5e-8a6b-7c8d9e0f1a2b", claims.UserID())
	assert.Equal(t, "viewer", claims.Username)
	assert.Equal(t, model.RoleSalesViewer, claims.Role)
	assert.Equal(t, []string{"바르너"}, claims.Brands)
	assert.True(t, claims.MustChangePassword)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(testUser(), nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_WrongSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).Issue(testUser(), nil)
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{Role: model.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
