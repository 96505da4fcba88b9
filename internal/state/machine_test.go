package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetState(ctx context.Context, chatID int64) (*ChatState, error) {
	args := m.Called(ctx, chatID)
	state, _ := args.Get(0).(*ChatState)
	return state, args.Error(1)
}

func (m *mockStorage) SetState(ctx context.Context, chatID int64, state *ChatState) error {
	args := m.Called(ctx, chatID, state)
	return args.Error(0)
}

func (m *mockStorage) ClearState(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *mockStorage) GetAllStates(ctx context.Context) ([]*ChatState, error) {
	args := m.Called(ctx)
	states, _ := args.Get(0).([]*ChatState)
	return states, args.Error(1)
}

func TestMachine_Transition(t *testing.T) {
	ctx := context.Background()
	chatID := int64(42)
	log := testLogger()

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		newState    State
		expectedErr error
	}{
		{
			name: "successful transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, chatID).
					Return(&ChatState{CurrentState: StateIdle}, nil).Once()
				ms.On("SetState", mock.Anything, chatID, mock.MatchedBy(func(state *ChatState) bool {
					return state.CurrentState == StateAwaitingBirthdate
				})).Return(nil).Once()
			},
			newState:    StateAwaitingBirthdate,
			expectedErr: nil,
		},
		{
			name: "invalid transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, chatID).
					Return(&ChatState{CurrentState: StateIdle}, nil).Once()
			},
			newState:    StateAwaitingHour,
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "new chat transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, chatID).
					Return((*ChatState)(nil), ErrStateNotFound).Once()
				ms.On("SetState", mock.Anything, chatID, mock.MatchedBy(func(state *ChatState) bool {
					return state.CurrentState == StateAwaitingBirthdate
				})).Return(nil).Once()
			},
			newState:    StateAwaitingBirthdate,
			expectedErr: nil,
		},
		{
			name: "storage failure propagated",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, chatID).
					Return((*ChatState)(nil), errStorageFailure).Once()
			},
			newState:    StateAwaitingBirthdate,
			expectedErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			fsm := NewMachine(ms, log, nil)
			err := fsm.Transition(ctx, chatID, tc.newState, nil)

			if tc.expectedErr != nil {
				if err == nil || err != tc.expectedErr {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_TransitionContext(t *testing.T) {
	ctx := context.Background()
	chatID := int64(9)

	ms := &mockStorage{}
	ms.On("GetState", mock.Anything, chatID).
		Return(&ChatState{CurrentState: StateAwaitingBirthdate}, nil).Once()
	ms.On("SetState", mock.Anything, chatID, mock.MatchedBy(func(state *ChatState) bool {
		return state.CurrentState == StateAwaitingHour && state.Context[CtxBirthdate] == "1990-07-15"
	})).Return(nil).Once()

	fsm := NewMachine(ms, testLogger(), nil)
	err := fsm.Transition(ctx, chatID, StateAwaitingHour, map[string]interface{}{
		CtxBirthdate: "1990-07-15",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ms.AssertExpectations(t)
}

func TestMachine_GetState(t *testing.T) {
	ctx := context.Background()
	chatID := int64(7)
	log := testLogger()

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		expectState *ChatState
		expectErr   error
	}{
		{
			name: "state found",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, chatID).
					Return(&ChatState{ChatID: chatID, CurrentState: StateAwaitingHour}, nil).Once()
			},
			expectState: &ChatState{ChatID: chatID, CurrentState: StateAwaitingHour},
			expectErr:   nil,
		},
		{
			name: "state not found",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, chatID).
					Return((*ChatState)(nil), ErrStateNotFound).Once()
			},
			expectState: nil,
			expectErr:   ErrStateNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)
			fsm := NewMachine(ms, log, nil)

			state, err := fsm.GetState(ctx, chatID)

			if tc.expectErr != nil {
				if err == nil || err != tc.expectErr {
					t.Fatalf("expected error %v, got %v", tc.expectErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}

			if tc.expectState != nil && state != nil {
				if tc.expectState.ChatID != state.ChatID || tc.expectState.CurrentState != state.CurrentState {
					t.Fatalf("unexpected state: %+v", state)
				}
			} else if tc.expectState != state {
				t.Fatalf("expected state %+v, got %+v", tc.expectState, state)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_ClearState(t *testing.T) {
	ctx := context.Background()
	chatID := int64(13)
	log := testLogger()

	testCases := []struct {
		name       string
		setupMocks func(ms *mockStorage)
		expectErr  error
	}{
		{
			name: "clear state success",
			setupMocks: func(ms *mockStorage) {
				ms.On("ClearState", mock.Anything, chatID).
					Return(nil).Once()
			},
			expectErr: nil,
		},
		{
			name: "clear state error",
			setupMocks: func(ms *mockStorage) {
				ms.On("ClearState", mock.Anything, chatID).
					Return(errStorageFailure).Once()
			},
			expectErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			fsm := NewMachine(ms, log, nil)
			err := fsm.ClearState(ctx, chatID)

			if tc.expectErr != nil {
				if err == nil || err != tc.expectErr {
					t.Fatalf("expected error %v, got %v", tc.expectErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_Lock(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := &slowStorage{inner: NewMemoryStorage(), delay: 100 * time.Millisecond}
	fsm := NewMachine(storage, testLogger(), client)

	ctx := context.Background()
	chatID := int64(77)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- fsm.SetState(ctx, chatID, StateAwaitingBirthdate, nil)
		}()
	}

	wg.Wait()
	close(errCh)

	var success, locked int
	for err := range errCh {
		if err == nil {
			success++
			continue
		}

		if errors.Is(err, ErrStateLocked) {
			locked++
			continue
		}

		t.Fatalf("unexpected error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected 1 successful update, got %d", success)
	}
	if locked != 1 {
		t.Fatalf("expected 1 locked update, got %d", locked)
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type slowStorage struct {
	inner Storage
	delay time.Duration
}

func (s *slowStorage) GetState(ctx context.Context, chatID int64) (*ChatState, error) {
	return s.inner.GetState(ctx, chatID)
}

func (s *slowStorage) SetState(ctx context.Context, chatID int64, state *ChatState) error {
	time.Sleep(s.delay)
	return s.inner.SetState(ctx, chatID, state)
}

func (s *slowStorage) ClearState(ctx context.Context, chatID int64) error {
	return s.inner.ClearState(ctx, chatID)
}

func (s *slowStorage) GetAllStates(ctx context.Context) ([]*ChatState, error) {
	return s.inner.GetAllStates(ctx)
}
