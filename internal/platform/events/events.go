// Package events publishes entry lifecycle events. Kafka is used when brokers
// are configured; otherwise events are dropped by a no-op publisher.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TypeEntrySaved     = "entry.saved"
	TypeEntryDeleted   = "entry.deleted"
	TypeHistoryCleared = "history.cleared"
)

type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	EntryID    int64     `json:"entry_id,omitempty"`
	Count      int64     `json:"count,omitempty"`
	FIB4Risk   *int      `json:"fib4_risk,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh ID and the current UTC time.
func New(eventType string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// Key partitions events by entry so that saved/deleted for one entry stay
// ordered. Clear events share a single key.
func (e Event) Key() string {
	if e.EntryID == 0 {
		return e.Type
	}
	return "entry-" + strconv.FormatInt(e.EntryID, 10)
}

type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NoopPublisher) Close() error                            { return nil }
