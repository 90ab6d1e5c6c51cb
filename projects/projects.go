package projects

import (
	"context"
	"time"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/resource"
)

const Path = "/api/projects/"

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserCount   int       `json:"user_count"`
}

type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type Patch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Service manages /api/projects/
type Service struct {
	*resource.Service[Project]
}

func NewService(client *apiclient.Client) *Service {
	return &Service{Service: resource.New[Project](client, Path)}
}

func (s *Service) Create(ctx context.Context, in Input) (*Project, error) {
	return s.Service.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Project, error) {
	return s.Service.Update(ctx, id, patch)
}

// ToggleStatus activates or deactivates a project
func (s *Service) ToggleStatus(ctx context.Context, id int64, active bool) (*Project, error) {
	return s.Update(ctx, id, Patch{IsActive: &active})
}
