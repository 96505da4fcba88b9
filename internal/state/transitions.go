package state

// validTransitions contains the permitted non-emergency transitions of the
// conversation state machine. Returning to idle is always allowed.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingBirthdate,
		StateAwaitingBirthdateUpdate,
		StateAwaitingHourUpdate,
	},
	StateAwaitingBirthdate: {
		StateAwaitingHour,
	},
	StateAwaitingHour:            {},
	StateAwaitingBirthdateUpdate: {},
	StateAwaitingHourUpdate:      {},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateError || to == StateIdle {
		return true
	}

	// A failed validation re-prompt keeps the current state.
	if from == to {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, next := range allowed {
		if next == to {
			return true
		}
	}

	return false
}
