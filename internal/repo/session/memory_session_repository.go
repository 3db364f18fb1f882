package session

import (
	"context"
	"sync"
)

// MemoryRepository keeps sessions in process memory. Entries are lost on restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]map[string][]byte
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, sid, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.sessions[sid][key]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), value...), true, nil
}

func (r *MemoryRepository) Set(_ context.Context, sid, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.sessions[sid]
	if !ok {
		entries = make(map[string][]byte)
		r.sessions[sid] = entries
	}

	entries[key] = append([]byte{}, value...)

	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, sid, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions[sid], key)

	if len(r.sessions[sid]) == 0 {
		delete(r.sessions, sid)
	}

	return nil
}

func (r *MemoryRepository) Purge(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sid)

	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
