// Package storage provides origin-scoped key/value persistence for todo state.
package storage

import (
	"context"
	"errors"
	"strings"
)

// Keys under which an origin's state is persisted.
const (
	KeyTodos      = "todos"
	KeyCategories = "categories"
)

// ErrEmptyOrigin is returned when a backend is asked for an unnamed origin.
var ErrEmptyOrigin = errors.New("storage: empty origin")

// Storage is the key/value view of a single origin.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Backend holds the key/value entries of many origins.
type Backend interface {
	Get(ctx context.Context, origin, key string) (string, bool, error)
	Set(ctx context.Context, origin, key, value string) error
}

type scoped struct {
	backend Backend
	origin  string
}

// Scope narrows a backend to one origin.
func Scope(backend Backend, origin string) Storage {
	return &scoped{backend: backend, origin: strings.TrimSpace(origin)}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	if s.origin == "" {
		return "", false, ErrEmptyOrigin
	}
	return s.backend.Get(ctx, s.origin, key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	if s.origin == "" {
		return ErrEmptyOrigin
	}
	return s.backend.Set(ctx, s.origin, key, value)
}
