package storage

import (
	"context"
	"sync"
)

type memoryKey struct {
	origin string
	key    string
}

// Memory keeps entries in process memory. State is lost on exit.
type Memory struct {
	mu sync.RWMutex
	m  map[memoryKey]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[memoryKey]string)}
}

func (c *Memory) Get(_ context.Context, origin, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[memoryKey{origin, key}]
	return v, ok, nil
}

func (c *Memory) Set(_ context.Context, origin, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[memoryKey{origin, key}] = value
	return nil
}
