// Package store holds client-side cached collections of server entities.
// Each store mirrors the last server response and applies the result of its
// own writes; there is no optimistic concurrency, the last write wins.
package store

import (
	"context"
	"net/url"
	"sync"

	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/models"
)

// Entity is anything the server identifies by an opaque id
type Entity interface {
	GetID() core.ID
}

// Transport is the subset of the REST client a store needs
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string) error
}

// Endpoints names the routes of one collection. Writes to an empty path are
// rejected without a request.
type Endpoints struct {
	List   string
	Create string
	Item   string
	Patch  bool
}

// Store caches one collection
type Store[T Entity] struct {
	name      string
	transport Transport
	endpoints Endpoints

	mu    sync.RWMutex
	items []T
}

// New creates an empty store for the collection name served at endpoints
func New[T Entity](name string, transport Transport, endpoints Endpoints) *Store[T] {
	return &Store[T]{name: name, transport: transport, endpoints: endpoints}
}

// Name returns the collection name
func (s *Store[T]) Name() string { return s.name }

// Fetch replaces the cache with the server's view of scope
func (s *Store[T]) Fetch(ctx context.Context, scope models.RecordFilter) ([]T, error) {
	var items []T
	if err := s.transport.Get(ctx, s.endpoints.List, scope.Values(), &items); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", s.name)
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return s.Items(), nil
}

// Create posts input and appends the stored entity
func (s *Store[T]) Create(ctx context.Context, input interface{}) (T, error) {
	var created T
	if s.endpoints.Create == "" {
		return created, errors.InvalidInput(s.name + " cannot be created")
	}
	if err := s.transport.Post(ctx, s.endpoints.Create, input, &created); err != nil {
		return created, errors.Wrapf(err, "failed to create %s", s.name)
	}
	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()
	return created, nil
}

// Update patches the entity and replaces the cached copy
func (s *Store[T]) Update(ctx context.Context, id core.ID, patch interface{}) (T, error) {
	var updated T
	if !s.endpoints.Patch || s.endpoints.Item == "" {
		return updated, errors.InvalidInput(s.name + " cannot be updated")
	}
	if err := s.transport.Patch(ctx, s.itemPath(id), patch, &updated); err != nil {
		return updated, errors.Wrapf(err, "failed to update %s", s.name)
	}
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].GetID() == id {
			s.items[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// Delete removes the entity on the server and from the cache
func (s *Store[T]) Delete(ctx context.Context, id core.ID) error {
	if s.endpoints.Item == "" {
		return errors.InvalidInput(s.name + " cannot be deleted")
	}
	if err := s.transport.Delete(ctx, s.itemPath(id)); err != nil {
		return errors.Wrapf(err, "failed to delete %s", s.name)
	}
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].GetID() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the cached collection
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up a cached entity by id
func (s *Store[T]) Get(id core.ID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of cached entities
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store[T]) itemPath(id core.ID) string {
	return s.endpoints.Item + "/" + url.PathEscape(id.String())
}
