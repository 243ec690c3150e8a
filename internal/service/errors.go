package service

import (
	"errors"

	"salesadmin/internal/github"
	"salesadmin/internal/slack"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
	ErrProtectedUser      = errors.New("the admin account cannot be modified this way")
	ErrInvalidRole        = errors.New("invalid role: must be admin, sales_viewer or user")
	ErrBrandDenied        = errors.New("brand access denied")
	ErrLogNotFound        = errors.New("log not found")
	ErrInvalidRequest     = errors.New("invalid request")
)

// IsNotConfigured reports whether err comes from an integration without credentials
func IsNotConfigured(err error) bool {
	return errors.Is(err, github.ErrNotConfigured) || errors.Is(err, slack.ErrNotConfigured)
}
