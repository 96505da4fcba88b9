package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatLockKeyPattern = "chat:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a chat has no stored conversation state.
	ErrStateNotFound = errors.New("conversation state not found")
	// ErrStateLocked indicates that a concurrent update already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine describes the operations supported by the conversation controller.
type Machine interface {
	GetState(ctx context.Context, chatID int64) (*ChatState, error)
	SetState(ctx context.Context, chatID int64, st State, contextData map[string]interface{}) error
	Transition(ctx context.Context, chatID int64, newState State, contextData map[string]interface{}) error
	ClearState(ctx context.Context, chatID int64) error
	GetAllStates(ctx context.Context) ([]*ChatState, error)
}

// machine is a concrete Machine backed by Storage, with optional Redis
// locking when a client is provided (memory deployments run lock-free: each
// chat's turns arrive sequentially from the Telegram poller).
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewMachine creates a conversation controller using the provided storage
// backend and an optional redis client for cross-process locking.
func NewMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) Machine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

// GetState proxies to the underlying storage implementation.
func (m *machine) GetState(ctx context.Context, chatID int64) (*ChatState, error) {
	return m.storage.GetState(ctx, chatID)
}

// GetAllStates returns every stored chat state.
func (m *machine) GetAllStates(ctx context.Context) ([]*ChatState, error) {
	return m.storage.GetAllStates(ctx)
}

// SetState saves the state unconditionally, bypassing the transition table.
// Intended for recovery paths; conversation handlers use Transition.
func (m *machine) SetState(ctx context.Context, chatID int64, st State, contextData map[string]interface{}) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	return m.saveState(ctx, chatID, st, contextData)
}

// Transition changes the state if the transition is allowed, guarded by the
// lock, carrying contextData into the new state.
func (m *machine) Transition(ctx context.Context, chatID int64, newState State, contextData map[string]interface{}) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	current := StateIdle

	stored, err := m.storage.GetState(ctx, chatID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return err
		}
	} else if stored != nil {
		current = stored.CurrentState
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid state transition", "chat_id", chatID, "from", current, "to", newState)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	return m.saveState(ctx, chatID, newState, contextData)
}

// ClearState removes the stored state while holding the lock.
func (m *machine) ClearState(ctx context.Context, chatID int64) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	return m.storage.ClearState(ctx, chatID)
}

func (m *machine) saveState(ctx context.Context, chatID int64, st State, contextData map[string]interface{}) error {
	chatState := &ChatState{
		ChatID:       chatID,
		CurrentState: st,
		Context:      contextData,
	}

	return m.storage.SetState(ctx, chatID, chatState)
}

func (m *machine) lock(ctx context.Context, chatID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire chat state lock", "chat_id", chatID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("chat state lock already held", "chat_id", chatID)
		return ErrStateLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, chatID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release chat state lock", "chat_id", chatID, "error", err)
	}
}
