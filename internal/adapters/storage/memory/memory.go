// Package memory implements an in-process key-value store. It backs the
// ephemeral CLI mode and tests; nothing survives the process.
package memory

import (
	"context"
	"maps"
	"slices"
	"time"
)

// Store keeps string values in a map.
type Store struct {
	values   map[string]string
	updated  map[string]time.Time
	now      func() time.Time
	writeErr error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		values:  map[string]string{},
		updated: map[string]time.Time{},
		now:     time.Now,
	}
}

// NewWithValues returns a store pre-populated with values. Seeded keys report
// a zero UpdatedAt until they are written.
func NewWithValues(values map[string]string) *Store {
	s := New()
	maps.Copy(s.values, values)
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s.values[key]
	return value, ok, nil
}

// Set overwrites key, or fails with the error configured by FailWrites.
func (s *Store) Set(_ context.Context, key, value string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[key] = value
	s.updated[key] = s.now().UTC()
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	delete(s.updated, key)
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(s.values)), nil
}

// UpdatedAt reports when key was last written through Set.
func (s *Store) UpdatedAt(_ context.Context, key string) (time.Time, bool, error) {
	if _, ok := s.values[key]; !ok {
		return time.Time{}, false, nil
	}
	return s.updated[key], true, nil
}

// FailWrites makes every later Set return err. A nil err restores writes.
func (s *Store) FailWrites(err error) {
	s.writeErr = err
}
