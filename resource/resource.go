// Package resource implements the DRF collection conventions shared by every
// AAMS endpoint: list, detail, create, partial and full update, delete and
// custom detail actions.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
)

// Page is a paginated DRF list response
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Service is a typed view of one collection such as /api/projects/
type Service[T any] struct {
	client *apiclient.Client
	path   string
}

// New returns a service for the collection at path. Leading and trailing
// slashes are added when missing.
func New[T any](client *apiclient.Client, path string) *Service[T] {
	path = "/" + strings.Trim(path, "/") + "/"
	return &Service[T]{client: client, path: path}
}

// Path returns the collection path
func (s *Service[T]) Path() string {
	return s.path
}

// Client returns the API client the service calls through
func (s *Service[T]) Client() *apiclient.Client {
	return s.client
}

// DetailPath returns the path of the record with id
func (s *Service[T]) DetailPath(id int64) string {
	return s.path + strconv.FormatInt(id, 10) + "/"
}

// List fetches the collection. Both a bare JSON array and a DRF page are
// accepted, a page yields its results.
func (s *Service[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	page, err := s.ListPage(ctx, query)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListPage fetches the collection keeping the pagination metadata. A bare
// array is reported as a single page holding every record.
func (s *Service[T]) ListPage(ctx context.Context, query url.Values) (*Page[T], error) {
	var opts []apiclient.RequestOption
	if len(query) > 0 {
		opts = append(opts, apiclient.WithQuery(query))
	}
	resp, err := s.client.Get(ctx, s.path, opts...)
	if err != nil {
		return nil, err
	}
	return decodeList[T](resp.Body)
}

func (s *Service[T]) Get(ctx context.Context, id int64) (*T, error) {
	if err := validID("Get", id); err != nil {
		return nil, err
	}
	var out T
	if err := s.client.Do(ctx, http.MethodGet, s.DetailPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service[T]) Create(ctx context.Context, body any) (*T, error) {
	var out T
	if err := s.client.Do(ctx, http.MethodPost, s.path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends a partial update (PATCH), only the fields present in patch change
func (s *Service[T]) Update(ctx context.Context, id int64, patch any) (*T, error) {
	if err := validID("Update", id); err != nil {
		return nil, err
	}
	var out T
	if err := s.client.Do(ctx, http.MethodPatch, s.DetailPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Replace sends a full update (PUT)
func (s *Service[T]) Replace(ctx context.Context, id int64, body any) (*T, error) {
	if err := validID("Replace", id); err != nil {
		return nil, err
	}
	var out T
	if err := s.client.Do(ctx, http.MethodPut, s.DetailPath(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if err := validID("Delete", id); err != nil {
		return err
	}
	_, err := s.client.Delete(ctx, s.DetailPath(id))
	return err
}

// Action calls a custom route. With id 0 it is a list route such as
// /api/users/me/, otherwise a detail route such as /api/users/3/assign_role/.
func (s *Service[T]) Action(ctx context.Context, method string, id int64, action string, body, out any) error {
	if action == "" || id < 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "[resource Action] invalid action %q on id %d", action, id)
	}
	path := s.path
	if id > 0 {
		path = s.DetailPath(id)
	}
	return s.client.Do(ctx, method, path+strings.Trim(action, "/")+"/", body, out)
}

func validID(op string, id int64) error {
	if id <= 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "[resource %s] invalid id %d", op, id)
	}
	return nil
}

func decodeList[T any](body []byte) (*Page[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Page[T]{Results: []T{}}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.Wrapf(err, "[resource List] failed to decode list")
		}
		return &Page[T]{Count: len(items), Results: items}, nil
	}
	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, errors.Wrapf(err, "[resource List] failed to decode page")
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return &page, nil
}
