package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"todo-planner/internal/storage"
	"todo-planner/internal/store"
)

// Registry hands out one hydrated Store per origin.
type Registry struct {
	backend storage.Backend
	logger  *log.Logger
	opts    []store.Option

	mu     sync.RWMutex
	stores map[string]*store.Store
	loads  singleflight.Group
}

func NewRegistry(backend storage.Backend, logger *log.Logger, opts ...store.Option) *Registry {
	return &Registry{
		backend: backend,
		logger:  logger,
		opts:    opts,
		stores:  make(map[string]*store.Store),
	}
}

// Store returns the origin's store, loading it from storage on first use.
// Loads run outside the registry lock; concurrent first calls for one
// origin share a single load.
func (r *Registry) Store(ctx context.Context, origin string) (*store.Store, error) {
	if s, ok := r.cached(origin); ok {
		return s, nil
	}

	v, err, _ := r.loads.Do(origin, func() (interface{}, error) {
		if s, ok := r.cached(origin); ok {
			return s, nil
		}
		logger := r.logger.With("origin", origin)
		opts := append([]store.Option{store.WithLogger(logger)}, r.opts...)
		s := store.New(storage.Scope(r.backend, origin), opts...)
		if err := s.LoadInitialState(ctx); err != nil {
			return nil, fmt.Errorf("load state for %s: %w", origin, err)
		}

		r.mu.Lock()
		r.stores[origin] = s
		r.mu.Unlock()
		logger.Debug("store loaded")
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.Store), nil
}

func (r *Registry) cached(origin string) (*store.Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[origin]
	return s, ok
}

// Loaded lists the origins whose stores are currently held.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	origins := make([]string, 0, len(r.stores))
	for origin := range r.stores {
		origins = append(origins, origin)
	}
	return origins
}
