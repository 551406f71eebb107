package game

import (
	"errors"
	"sync"
)

var ErrMatchExists = errors.New("match id already in use")

// Registry is the process-wide store of live matches keyed by match id.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*Match
}

func NewRegistry() *Registry {
	return &Registry{matches: make(map[string]*Match)}
}

func (r *Registry) Create(id string, playerA, playerB int64) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[id]; exists {
		return nil, ErrMatchExists
	}
	m := NewMatch(id, playerA, playerB)
	r.matches[id] = m
	return m, nil
}

func (r *Registry) Get(id string) (*Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	return m, ok
}

func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.matches, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
