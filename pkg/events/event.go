package events

import (
	"encoding/json"
	"time"
)

// Event is a single analytics record waiting to be delivered.
type Event struct {
	Kind      Kind
	CreatedAt time.Time
	// Link is the deep link the event is attributed to, if any.
	Link *string
	// EngagementSeconds is set on TimeSpent events once the session closed.
	EngagementSeconds *int
}

// Identity distinguishes events: two events with the same kind and creation
// time are the same event.
type Identity struct {
	Kind      Kind
	CreatedAt int64 // Unix milliseconds
}

// New creates an event of kind at the given time.
func New(kind Kind, at time.Time) Event {
	return Event{Kind: kind, CreatedAt: Truncate(at)}
}

// Identity returns the key that identifies e in the event log.
func (e Event) Identity() Identity {
	return Identity{Kind: e.Kind, CreatedAt: e.CreatedAt.UnixMilli()}
}

// Same reports whether e and other have the same identity.
func (e Event) Same(other Event) bool {
	return e.Identity() == other.Identity()
}

// HasLink reports whether e is attributed to a link.
func (e Event) HasLink() bool { return e.Link != nil }

// HasEngagement reports whether e carries engagement seconds.
func (e Event) HasEngagement() bool { return e.EngagementSeconds != nil }

// WithLink returns a copy of e attributed to link.
func (e Event) WithLink(link string) Event {
	e.Link = &link
	return e
}

// WithEngagement returns a copy of e carrying the engagement time.
func (e Event) WithEngagement(seconds int) Event {
	e.EngagementSeconds = &seconds
	return e
}

type wireEvent struct {
	Kind              Kind      `json:"event"`
	CreatedAt         Timestamp `json:"created_at"`
	Link              *string   `json:"link,omitempty"`
	EngagementSeconds *int      `json:"engagement_time,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		Kind:              e.Kind,
		CreatedAt:         NewTimestamp(e.CreatedAt),
		Link:              e.Link,
		EngagementSeconds: e.EngagementSeconds,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{
		Kind:              w.Kind,
		CreatedAt:         w.CreatedAt.Time,
		Link:              w.Link,
		EngagementSeconds: w.EngagementSeconds,
	}
	return nil
}
