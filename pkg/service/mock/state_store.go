package mock

import (
	"context"
	"sync"

	"github.com/recoverykit/journey-engine/pkg/state"
)

// StateStore is a mock implementation of service.StateStore for testing
// storage failures. Without overrides it behaves like an empty store that
// accepts writes.
type StateStore struct {
	mu sync.Mutex

	// GetUserRecordFunc is called when GetUserRecord is invoked
	GetUserRecordFunc func(ctx context.Context, userID string) (*state.UserRecord, error)

	// SaveUserRecordFunc is called when SaveUserRecord is invoked
	SaveUserRecordFunc func(ctx context.Context, userID string, record *state.UserRecord) error

	// Call tracking
	GetCalls  []string
	SaveCalls []string
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

func (s *StateStore) GetUserRecord(ctx context.Context, userID string) (*state.UserRecord, error) {
	s.mu.Lock()
	s.GetCalls = append(s.GetCalls, userID)
	s.mu.Unlock()

	if s.GetUserRecordFunc != nil {
		return s.GetUserRecordFunc(ctx, userID)
	}
	return nil, nil
}

func (s *StateStore) SaveUserRecord(ctx context.Context, userID string, record *state.UserRecord) error {
	s.mu.Lock()
	s.SaveCalls = append(s.SaveCalls, userID)
	s.mu.Unlock()

	if s.SaveUserRecordFunc != nil {
		return s.SaveUserRecordFunc(ctx, userID, record)
	}
	return nil
}
