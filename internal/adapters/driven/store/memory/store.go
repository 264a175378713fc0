// Package memory provides an in-memory implementation of the store
// client port, used in tests and as a reference for the semantics the
// real adapters must match.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.StoreClient = (*Store)(nil)

// Store is an in-memory implementation of driven.StoreClient.
type Store struct {
	mu      sync.RWMutex
	classes map[string]driven.ClassSchema
	// objects maps class name to object ID to object. Insertion order
	// is tracked separately so queries are deterministic.
	objects map[string]map[string]driven.StoredObject
	order   map[string][]string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		classes: make(map[string]driven.ClassSchema),
		objects: make(map[string]map[string]driven.StoredObject),
		order:   make(map[string][]string),
	}
}

// ClassExists reports whether the named class exists.
func (s *Store) ClassExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.classes[name]
	return ok, nil
}

// CreateClass creates a class.
func (s *Store) CreateClass(_ context.Context, schema driven.ClassSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classes[schema.Class]; ok {
		return domain.ErrAlreadyExists
	}
	s.classes[schema.Class] = schema
	s.objects[schema.Class] = make(map[string]driven.StoredObject)
	return nil
}

// GetClass returns the stored schema for a class.
func (s *Store) GetClass(_ context.Context, name string) (*driven.ClassSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema, ok := s.classes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := schema
	out.Properties = append([]driven.Property(nil), schema.Properties...)
	return &out, nil
}

// ListClasses returns the names of all existing classes, sorted.
func (s *Store) ListClasses(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.classes))
	for name := range s.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteClass removes a class and all its objects.
func (s *Store) DeleteClass(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.classes, name)
	delete(s.objects, name)
	delete(s.order, name)
	return nil
}

// DeleteAllClasses removes every class.
func (s *Store) DeleteAllClasses(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classes = make(map[string]driven.ClassSchema)
	s.objects = make(map[string]map[string]driven.StoredObject)
	s.order = make(map[string][]string)
	return nil
}

// UpsertObjects bulk-writes objects and returns the assigned IDs in
// input order.
func (s *Store) UpsertObjects(_ context.Context, class string, objects []driven.StoredObject) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classes[class]; !ok {
		return nil, domain.ErrNotFound
	}

	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.ID == "" {
			obj.ID = uuid.NewString()
		}
		obj.Class = class

		if _, exists := s.objects[class][obj.ID]; !exists {
			s.order[class] = append(s.order[class], obj.ID)
		}
		s.objects[class][obj.ID] = copyObject(obj)
		ids = append(ids, obj.ID)
	}
	return ids, nil
}

// QueryObjects returns up to limit objects in insertion order.
func (s *Store) QueryObjects(_ context.Context, class string, _ []string, limit int) ([]driven.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.classes[class]; !ok {
		return nil, domain.ErrNotFound
	}

	var result []driven.StoredObject
	for _, id := range s.order[class] {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, copyObject(s.objects[class][id]))
	}
	return result, nil
}

// GetObjectByID returns one object.
func (s *Store) GetObjectByID(_ context.Context, class, id string) (*driven.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[class][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyObject(obj)
	return &out, nil
}

// CountObjects returns the number of objects in a class.
func (s *Store) CountObjects(_ context.Context, class string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.classes[class]; !ok {
		return 0, domain.ErrNotFound
	}
	return len(s.objects[class]), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// copyObject copies an object so callers cannot mutate stored state.
func copyObject(obj driven.StoredObject) driven.StoredObject {
	out := obj
	out.Properties = make(map[string]any, len(obj.Properties))
	for k, v := range obj.Properties {
		out.Properties[k] = v
	}
	out.Vector = append([]float32(nil), obj.Vector...)
	return out
}
