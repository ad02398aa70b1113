// Package events fans out journal and entry changes to the owning user's
// live update streams.
package events

import "context"

// Actions.
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionRevive = "revive"
)

// Object types.
const (
	TypeJournal = "journal"
	TypeEntry   = "entry"
)

// Event is the message delivered to a user's stream.
type Event struct {
	Event string  `json:"event"`
	Data  Payload `json:"data"`
}

type Payload struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func New(action, typ string, data any) Event {
	return Event{Event: action, Data: Payload{Type: typ, Data: data}}
}

// Notifier publishes an event for one user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, string, Event) {}
