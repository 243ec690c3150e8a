package service

import (
	"context"

	"salesadmin/internal/model"
)

// RoleResponse describes one role and what it grants
type RoleResponse struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	AllBrands   bool     `json:"all_brands"`
}

type RoleService interface {
	ListRoles(ctx context.Context) []RoleResponse
	ListPermissions(ctx context.Context) []string
}

type roleService struct{}

// NewRoleService serves the fixed role table
func NewRoleService() RoleService {
	return roleService{}
}

func (roleService) ListRoles(context.Context) []RoleResponse {
	roles := []string{model.RoleAdmin, model.RoleSalesViewer, model.RoleUser}
	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, RoleResponse{
			Name:        r,
			Permissions: model.PermissionsFor(r),
			AllBrands:   r == model.RoleAdmin,
		})
	}
	return res
}

func (roleService) ListPermissions(context.Context) []string {
	return model.PermissionsFor(model.RoleAdmin)
}
