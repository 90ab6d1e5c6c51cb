package session

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/aams-client/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		values: make(map[string]string),
	}
}

func (r *InMemoryRepo) Get(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", errors.ErrKeyNotFound
	}
	return v, nil
}

func (r *InMemoryRepo) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

// Remove deletes a key, removing a missing key is not an error
func (r *InMemoryRepo) Remove(key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

// Len returns the number of stored keys
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}
