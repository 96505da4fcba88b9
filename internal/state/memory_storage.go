package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps chat states in process memory. It is the default
// backend for single-instance deployments where conversation state does not
// need to outlive the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	states map[int64]*ChatState
}

// NewMemoryStorage creates an empty in-memory state storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[int64]*ChatState),
	}
}

func (s *MemoryStorage) GetState(ctx context.Context, chatID int64) (*ChatState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[chatID]
	if !ok {
		return nil, ErrStateNotFound
	}

	return cloneState(st), nil
}

func (s *MemoryStorage) SetState(ctx context.Context, chatID int64, st *ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneState(st)
	stored.ChatID = chatID
	stored.UpdatedAt = time.Now()
	s.states[chatID] = stored

	return nil
}

func (s *MemoryStorage) ClearState(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, chatID)

	return nil
}

func (s *MemoryStorage) GetAllStates(ctx context.Context) ([]*ChatState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]*ChatState, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, cloneState(st))
	}

	return states, nil
}

func cloneState(st *ChatState) *ChatState {
	if st == nil {
		return nil
	}

	clone := *st
	if st.Context != nil {
		clone.Context = make(map[string]interface{}, len(st.Context))
		for k, v := range st.Context {
			clone.Context[k] = v
		}
	}

	return &clone
}
