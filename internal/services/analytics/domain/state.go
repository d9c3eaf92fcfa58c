package domain

import (
	"encoding/json"
	"time"
)

// State is an account's position in the customer lifecycle.
type State string

// Lifecycle states. Every account starts as a stranger; the current state is
// derived from the newest recorded transition.
const (
	StateStranger       State = "stranger"
	StateSignedUp       State = "signed_up"
	StateSubscribed     State = "subscribed"
	StateCancelled      State = "cancelled"
	StateChurned        State = "churned"
	StateAccountDeleted State = "account_deleted"
)

// ValidState reports whether s names a known lifecycle state.
func ValidState(s State) bool {
	switch s {
	case StateStranger, StateSignedUp, StateSubscribed, StateCancelled, StateChurned, StateAccountDeleted:
		return true
	}
	return false
}

// Transition records one account lifecycle change.
type Transition struct {
	ID        string
	AccountID string
	From      State
	To        State
	Metadata  json.RawMessage
	CreatedAt time.Time
}
