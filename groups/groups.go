// Package groups reads the Django auth groups, the API exposes them read-only.
package groups

import (
	"context"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/resource"
)

const Path = "/api/groups/"

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Service lists and fetches groups
type Service struct {
	collection *resource.Service[Group]
}

func NewService(client *apiclient.Client) *Service {
	return &Service{collection: resource.New[Group](client, Path)}
}

func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.collection.List(ctx, nil)
}

func (s *Service) Get(ctx context.Context, id int64) (*Group, error) {
	return s.collection.Get(ctx, id)
}
