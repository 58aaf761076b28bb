package keel

import (
	"reflect"
	"sync"
)

// SyncContainer serializes access to a Container.
//
// Only top-level requests are serialized. Values built by the container
// receive the underlying Container, so lazy collections and proxies obtained
// through a SyncContainer resolve without holding its lock and must not be
// used from several goroutines at once.
type SyncContainer struct {
	mu sync.Mutex
	c  *Container
}

var _ Getter = (*SyncContainer)(nil)

// Synchronized wraps c for use from several goroutines.
func Synchronized(c *Container) *SyncContainer {
	return &SyncContainer{c: c}
}

// Has reports whether id is registered or can be discovered.
func (s *SyncContainer) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Has(id)
}

// Get resolves id.
func (s *SyncContainer) Get(id string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Get(id)
}

// Call invokes target with resolved arguments.
func (s *SyncContainer) Call(target any, args ...any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Call(target, args...)
}

// CanDiscover reports whether t can be built without a definition.
func (s *SyncContainer) CanDiscover(t reflect.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.CanDiscover(t)
}

// Unwrap returns the underlying container.
func (s *SyncContainer) Unwrap() *Container {
	return s.c
}
