package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/model"
	"salesadmin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateUserRequest struct {
	Username      string   `json:"username" binding:"required,min=2,max=50"`
	Password      string   `json:"password" binding:"required,min=6"`
	Role          string   `json:"role"`
	AllowedBrands []string `json:"allowed_brands"`
}

type InviteUserRequest struct {
	Username      string   `json:"username" binding:"required,min=2,max=50"`
	Role          string   `json:"role"`
	AllowedBrands []string `json:"allowed_brands"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UpdateBrandsRequest struct {
	AllowedBrands []string `json:"allowed_brands" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// UserResponse is a user without the password hash
type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Role               string    `json:"role"`
	AllowedBrands      []string  `json:"allowed_brands"`
	Permissions        []string  `json:"permissions"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          string    `json:"created_at"`
	UpdatedAt          string    `json:"updated_at"`
}

// UserService covers sessions and user administration
type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, actor *auth.Claims, req ChangePasswordRequest) (*TokenResponse, error)

	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, int64, error)
	CreateUser(ctx context.Context, actor *auth.Claims, req CreateUserRequest) (*UserResponse, error)
	InviteUser(ctx context.Context, actor *auth.Claims, req InviteUserRequest) (*UserResponse, error)
	UpdateRole(ctx context.Context, actor *auth.Claims, id string, req UpdateRoleRequest) (*UserResponse, error)
	UpdateBrands(ctx context.Context, actor *auth.Claims, id string, req UpdateBrandsRequest) (*UserResponse, error)
	ResetPassword(ctx context.Context, actor *auth.Claims, id string) error
	DeleteUser(ctx context.Context, actor *auth.Claims, id string) error
}

type UserServiceConfig struct {
	Brands          []string
	DefaultPassword string
	RefreshTTL      time.Duration
	BcryptCost      int
}

type userService struct {
	repo      repository.UserRepository
	refresh   repository.RefreshTokenRepository
	audit     AuditService
	txManager repository.TransactionManager
	tokens    *auth.Manager
	cfg       UserServiceConfig
	now       func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	refresh repository.RefreshTokenRepository,
	audit AuditService,
	txManager repository.TransactionManager,
	tokens *auth.Manager,
	cfg UserServiceConfig,
) UserService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		repo:      repo,
		refresh:   refresh,
		audit:     audit,
		txManager: txManager,
		tokens:    tokens,
		cfg:       cfg,
		now:       time.Now,
	}
}

// EffectiveBrands is the brand list a user may operate on; admins get every brand
func EffectiveBrands(user *model.User, all []string) []string {
	if user.Role == model.RoleAdmin {
		return slices.Clone(all)
	}
	if user.AllowedBrands == nil {
		return []string{}
	}
	return user.AllowedBrands
}

func (s *userService) mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:                 user.ID,
		Username:           user.Username,
		Role:               user.Role,
		AllowedBrands:      EffectiveBrands(user, s.cfg.Brands),
		Permissions:        model.PermissionsFor(user.Role),
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) findUser(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *userService) validateBrands(brands []string) error {
	for _, b := range brands {
		if !slices.Contains(s.cfg.Brands, b) {
			return fmt.Errorf("%w: unknown brand %q", ErrInvalidRequest, b)
		}
	}
	return nil
}

func (s *userService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// issueTokens signs an access token and stores a fresh refresh token
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	access, err := s.tokens.Issue(user, EffectiveBrands(user, s.cfg.Brands))
	if err != nil {
		return nil, err
	}

	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.cfg.RefreshTTL),
	}
	if err := s.refresh.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenResponse{Token: access, RefreshToken: rt.Token, User: *s.mapToResponse(user)}, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		zap.L().Info("login rejected", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and issues a new access token
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var res *TokenResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rt, err := s.refresh.GetValid(txCtx, refreshToken, s.now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		user, err := s.repo.GetByID(txCtx, rt.UserID.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if err := s.refresh.DeleteByToken(txCtx, refreshToken); err != nil {
			return err
		}
		res, err = s.issueTokens(txCtx, user)
		return err
	})
	return res, err
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.DeleteByToken(ctx, refreshToken)
}

// ChangePassword sets the actor's own password. The current password is not
// asked for while a change is forced after an invite or reset.
func (s *userService) ChangePassword(ctx context.Context, actor *auth.Claims, req ChangePasswordRequest) (*TokenResponse, error) {
	user, err := s.findUser(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}

	if !user.MustChangePassword {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	hashed, err := s.hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	user.Password = hashed
	user.MustChangePassword = false

	var res *TokenResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		if err := s.refresh.DeleteByUser(txCtx, user.ID.String()); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, actor, model.ActionChangePassword, user.ID.String(), user.Username, nil); err != nil {
			return err
		}
		res, err = s.issueTokens(txCtx, user)
		return err
	})
	return res, err
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *s.mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) create(ctx context.Context, actor *auth.Claims, action, username, password, role string, brands []string, mustChange bool) (*UserResponse, error) {
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if err := s.validateBrands(brands); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	if role == model.RoleAdmin || brands == nil {
		brands = []string{}
	}
	user := &model.User{
		Username:           username,
		Password:           hashed,
		Role:               role,
		AllowedBrands:      brands,
		MustChangePassword: mustChange,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		return s.audit.Record(txCtx, actor, action, user.ID.String(), user.Username, map[string]interface{}{
			"role":           role,
			"allowed_brands": brands,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(user), nil
}

func (s *userService) CreateUser(ctx context.Context, actor *auth.Claims, req CreateUserRequest) (*UserResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	return s.create(ctx, actor, model.ActionCreateUser, req.Username, req.Password, role, req.AllowedBrands, false)
}

// InviteUser creates an account with the default initial password that must be changed on first login
func (s *userService) InviteUser(ctx context.Context, actor *auth.Claims, req InviteUserRequest) (*UserResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleSalesViewer
	}
	return s.create(ctx, actor, model.ActionInviteUser, req.Username, s.cfg.DefaultPassword, role, req.AllowedBrands, true)
}

// mutate loads a user, applies change and saves it with an audit entry in one transaction
func (s *userService) mutate(ctx context.Context, actor *auth.Claims, id, action string, change func(*model.User) (interface{}, error)) (*model.User, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := change(user)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		return s.audit.Record(txCtx, actor, action, user.ID.String(), user.Username, details)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRole changes a role; promoting to admin clears the brand restriction
func (s *userService) UpdateRole(ctx context.Context, actor *auth.Claims, id string, req UpdateRoleRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	user, err := s.mutate(ctx, actor, id, model.ActionUpdateUserRole, func(u *model.User) (interface{}, error) {
		if u.Username == model.ProtectedUsername {
			return nil, ErrProtectedUser
		}
		details := map[string]string{"from": u.Role, "to": req.Role}
		u.Role = req.Role
		if u.Role == model.RoleAdmin {
			u.AllowedBrands = []string{}
		}
		return details, nil
	})
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(user), nil
}

// UpdateBrands replaces the brand list; admins keep access to every brand
func (s *userService) UpdateBrands(ctx context.Context, actor *auth.Claims, id string, req UpdateBrandsRequest) (*UserResponse, error) {
	if err := s.validateBrands(req.AllowedBrands); err != nil {
		return nil, err
	}

	user, err := s.mutate(ctx, actor, id, model.ActionUpdateUserBrands, func(u *model.User) (interface{}, error) {
		if u.Role == model.RoleAdmin {
			u.AllowedBrands = []string{}
		} else {
			u.AllowedBrands = req.AllowedBrands
		}
		return map[string]interface{}{"allowed_brands": u.AllowedBrands}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(user), nil
}

// ResetPassword restores the default initial password and forces a change on next login
func (s *userService) ResetPassword(ctx context.Context, actor *auth.Claims, id string) error {
	hashed, err := s.hash(s.cfg.DefaultPassword)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, actor, id, model.ActionResetPassword, func(u *model.User) (interface{}, error) {
		if u.Username == model.ProtectedUsername {
			return nil, ErrProtectedUser
		}
		u.Password = hashed
		u.MustChangePassword = true
		return nil, nil
	})
	return err
}

func (s *userService) DeleteUser(ctx context.Context, actor *auth.Claims, id string) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Username == model.ProtectedUsername {
		return ErrProtectedUser
	}
	if actor != nil && actor.UserID() == user.ID.String() {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidRequest)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.refresh.DeleteByUser(txCtx, id); err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audit.Record(txCtx, actor, model.ActionDeleteUser, id, user.Username, nil)
	})
}
