package roles

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/resource"
)

// UserRole assigns a role to a user
type UserRole struct {
	ID                 int64      `json:"id"`
	User               int64      `json:"user"`
	UserUsername       string     `json:"user_username"`
	Role               int64      `json:"role"`
	RoleName           string     `json:"role_name"`
	RoleColor          string     `json:"role_color"`
	AssignedBy         *int64     `json:"assigned_by"`
	AssignedByUsername string     `json:"assigned_by_username"`
	AssignedAt         time.Time  `json:"assigned_at"`
	ExpiresAt          *time.Time `json:"expires_at"`
	IsActive           bool       `json:"is_active"`
	IsExpired          bool       `json:"is_expired"`
}

type UserRoleInput struct {
	User      int64      `json:"user"`
	Role      int64      `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// RolePermission grants a permission to a role
type RolePermission struct {
	ID                 int64     `json:"id"`
	Role               int64     `json:"role"`
	RoleName           string    `json:"role_name"`
	Permission         int64     `json:"permission"`
	PermissionName     string    `json:"permission_name"`
	PermissionCategory string    `json:"permission_category"`
	GrantedBy          *int64    `json:"granted_by"`
	GrantedByUsername  string    `json:"granted_by_username"`
	GrantedAt          time.Time `json:"granted_at"`
	IsActive           bool      `json:"is_active"`
}

type RolePermissionInput struct {
	Role       int64 `json:"role"`
	Permission int64 `json:"permission"`
	IsActive   bool  `json:"is_active"`
}

// LinkPatch toggles a user-role or role-permission link
type LinkPatch struct {
	IsActive  *bool      `json:"is_active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UserRoleService manages /api/user-roles/
type UserRoleService struct {
	*resource.Service[UserRole]
}

func NewUserRoleService(client *apiclient.Client) *UserRoleService {
	return &UserRoleService{Service: resource.New[UserRole](client, UserRolesPath)}
}

func (s *UserRoleService) Create(ctx context.Context, in UserRoleInput) (*UserRole, error) {
	return s.Service.Create(ctx, in)
}

func (s *UserRoleService) Update(ctx context.Context, id int64, patch LinkPatch) (*UserRole, error) {
	return s.Service.Update(ctx, id, patch)
}

// MyRoles returns the caller's active role assignments
func (s *UserRoleService) MyRoles(ctx context.Context) ([]UserRole, error) {
	out := []UserRole{}
	if err := s.Action(ctx, http.MethodGet, 0, "my_roles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RolePermissionService manages /api/role-permissions/
type RolePermissionService struct {
	*resource.Service[RolePermission]
}

func NewRolePermissionService(client *apiclient.Client) *RolePermissionService {
	return &RolePermissionService{Service: resource.New[RolePermission](client, RolePermissionsPath)}
}

func (s *RolePermissionService) Create(ctx context.Context, in RolePermissionInput) (*RolePermission, error) {
	return s.Service.Create(ctx, in)
}

func (s *RolePermissionService) Update(ctx context.Context, id int64, patch LinkPatch) (*RolePermission, error) {
	return s.Service.Update(ctx, id, patch)
}
