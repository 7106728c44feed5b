package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the change that happened to an entry.
type EventType string

const (
	EntryCreated EventType = "created"
	EntryUpdated EventType = "updated"
	EntryDeleted EventType = "deleted"
)

// EntryEvent announces a change to a time entry. It carries only
// identifiers; consumers read the current entry from storage.
type EntryEvent struct {
	Type      EventType `json:"type"`
	EntryID   string    `json:"entryId"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryEvent stamps a new event with the current time.
func NewEntryEvent(typ EventType, entryID, userID, date string) *EntryEvent {
	return &EntryEvent{
		Type:      typ,
		EntryID:   entryID,
		UserID:    userID,
		Date:      date,
		Timestamp: time.Now().UTC(),
	}
}

func (t EventType) valid() bool {
	switch t {
	case EntryCreated, EntryUpdated, EntryDeleted:
		return true
	}
	return false
}

// ToJSON converts the event to JSON bytes
func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes and checks an event body.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var ev EntryEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.valid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.EntryID == "" {
		return nil, fmt.Errorf("event without entry id")
	}
	return &ev, nil
}
