package state

import "time"

// State represents a conversation state for a single chat.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next command.
	StateIdle State = "idle"
	// StateAwaitingBirthdate indicates that onboarding expects a birthdate.
	StateAwaitingBirthdate State = "awaiting_birthdate"
	// StateAwaitingHour indicates that onboarding expects the reminder hour;
	// the already-parsed birthdate travels in the state context.
	StateAwaitingHour State = "awaiting_hour"
	// StateAwaitingBirthdateUpdate indicates a standalone birthdate change.
	StateAwaitingBirthdateUpdate State = "awaiting_birthdate_update"
	// StateAwaitingHourUpdate indicates a standalone reminder-hour change.
	StateAwaitingHourUpdate State = "awaiting_hour_update"
	// StateError indicates that the conversation requires recovery.
	StateError State = "error"
)

// CtxBirthdate is the context key under which StateAwaitingHour carries the
// pending birthdate, formatted as 2006-01-02.
const CtxBirthdate = "birthdate"

// ChatState captures the current conversation state for one chat.
type ChatState struct {
	ChatID       int64                  `json:"chat_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
