package memory

import (
	"context"
	"sync"

	"quiz-battle/internal/domain"
)

// SnapshotStore keeps the session snapshot in process memory. Nothing
// survives a restart; it backs tests and throwaway games.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *SnapshotStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *SnapshotStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
