// Package state manages ephemeral per-chat conversation state for the bot.
package state

import "context"

// Storage defines the persistence contract for conversation state. Backends
// are free to drop state at any time; a chat without stored state is idle.
type Storage interface {
	// GetState returns the current state for the specified chat.
	GetState(ctx context.Context, chatID int64) (*ChatState, error)
	// SetState saves the provided state for the specified chat.
	SetState(ctx context.Context, chatID int64, st *ChatState) error
	// ClearState removes the state for the specified chat.
	ClearState(ctx context.Context, chatID int64) error
	// GetAllStates returns every stored chat state.
	GetAllStates(ctx context.Context) ([]*ChatState, error)
}
