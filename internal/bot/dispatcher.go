package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/bot/handlers"
	"github.com/ivklv/birthday-bot/internal/state"
)

// Dispatcher routes incoming updates to state-specific handlers.
type Dispatcher struct {
	fsm           state.Machine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.Machine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// currentState resolves the chat's conversation state, treating missing
// state as idle.
func (d *Dispatcher) currentState(c telebot.Context) (state.State, error) {
	ctx := context.Background()
	chatID := c.Chat().ID

	chatState, err := d.fsm.GetState(ctx, chatID)
	if err != nil {
		if !errors.Is(err, state.ErrStateNotFound) {
			return state.StateIdle, err
		}
		return state.StateIdle, nil
	}

	if chatState == nil {
		return state.StateIdle, nil
	}

	return chatState.CurrentState, nil
}

func (d *Dispatcher) getHandler(s state.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
