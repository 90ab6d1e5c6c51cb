// Package roles manages the AAMS role system: roles, permissions and the
// links assigning roles to users and permissions to roles.
package roles

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/resource"
	"github.com/jrsteele09/aams-client/users"
)

const (
	Path                = "/api/roles/"
	PermissionsPath     = "/api/permissions/"
	UserRolesPath       = "/api/user-roles/"
	RolePermissionsPath = "/api/role-permissions/"
)

// PermissionSummary is a granted permission embedded in a role
type PermissionSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type Role struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Color           string              `json:"color"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	PermissionCount int                 `json:"permission_count"`
	UserCount       int                 `json:"user_count"`
	Permissions     []PermissionSummary `json:"permissions"`
}

type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type Patch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type permissionRequest struct {
	PermissionID int64 `json:"permission_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Service manages /api/roles/
type Service struct {
	*resource.Service[Role]
}

func NewService(client *apiclient.Client) *Service {
	return &Service{Service: resource.New[Role](client, Path)}
}

func (s *Service) Create(ctx context.Context, in Input) (*Role, error) {
	return s.Service.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Role, error) {
	return s.Service.Update(ctx, id, patch)
}

// Users returns the active users holding roleID
func (s *Service) Users(ctx context.Context, roleID int64) ([]users.User, error) {
	out := []users.User{}
	if err := s.Action(ctx, http.MethodGet, roleID, "users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Permissions returns the active permissions granted to roleID
func (s *Service) Permissions(ctx context.Context, roleID int64) ([]Permission, error) {
	out := []Permission{}
	if err := s.Action(ctx, http.MethodGet, roleID, "permissions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignPermission grants permissionID to roleID, reactivating an earlier grant
func (s *Service) AssignPermission(ctx context.Context, roleID, permissionID int64) (*RolePermission, error) {
	var out RolePermission
	if err := s.Action(ctx, http.MethodPost, roleID, "assign_permission", permissionRequest{PermissionID: permissionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemovePermission revokes permissionID from roleID and returns the server message
func (s *Service) RemovePermission(ctx context.Context, roleID, permissionID int64) (string, error) {
	var out messageResponse
	if err := s.Action(ctx, http.MethodPost, roleID, "remove_permission", permissionRequest{PermissionID: permissionID}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
