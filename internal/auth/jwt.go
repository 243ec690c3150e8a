package auth

import (
	"errors"
	"fmt"
	"time"

	"salesadmin/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the session carried by an access token
type Claims struct {
	Username           string   `json:"username"`
	Role               string   `json:"role"`
	Brands             []string `json:"brands"`
	MustChangePassword bool     `json:"must_change_password"`
	jwt.RegisteredClaims
}

// UserID is the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// Manager signs and verifies HS256 access tokens
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued access tokens
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs an access token for the user. brands is the user's effective
// brand list, already expanded for admins.
func (m *Manager) Issue(user *model.User, brands []string) (string, error) {
	now := m.now()
	claims := Claims{
		Username:           user.Username,
		Role:               user.Role,
		Brands:             brands,
		MustChangePassword: user.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the claims
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
