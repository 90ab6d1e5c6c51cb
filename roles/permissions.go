package roles

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/resource"
)

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PermissionInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsActive    bool   `json:"is_active"`
}

type PermissionPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// PermissionService manages /api/permissions/
type PermissionService struct {
	*resource.Service[Permission]
}

func NewPermissionService(client *apiclient.Client) *PermissionService {
	return &PermissionService{Service: resource.New[Permission](client, PermissionsPath)}
}

func (s *PermissionService) Create(ctx context.Context, in PermissionInput) (*Permission, error) {
	return s.Service.Create(ctx, in)
}

func (s *PermissionService) Update(ctx context.Context, id int64, patch PermissionPatch) (*Permission, error) {
	return s.Service.Update(ctx, id, patch)
}

// Categories returns the distinct permission categories
func (s *PermissionService) Categories(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := s.Action(ctx, http.MethodGet, 0, "categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
