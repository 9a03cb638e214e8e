// Package notifications turns the live registration feed into the "someone
// joined a queue" panel: it normalizes records written by several client
// generations into one shape, orders them by recency, and hides everything
// a viewer already cleared.
package notifications

import (
	"fmt"
	"strings"
	"time"
)

// Event is a raw registration record as delivered by the feed. Different
// client generations wrote different field names for the same thing, so
// every candidate is carried and resolution picks the first non-empty one.
type Event struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName,omitempty"`
	Name        string     `json:"name,omitempty"`
	QueueName   string     `json:"queueName,omitempty"`
	NameOfQueue string     `json:"name_of_queue,omitempty"`
	Type        string     `json:"type,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	TimeIn      *time.Time `json:"time_in,omitempty"`
}

// Notification is the uniform, display-ready shape. CreatedAt is nil when
// no source field resolved; such records sort as oldest.
type Notification struct {
	ID        string     `json:"id"`
	ActorName string     `json:"actorName"`
	QueueName string     `json:"queueName"`
	Message   string     `json:"message"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Resolution is the tagged outcome of choosing among legacy field aliases,
// instead of an opaque a-or-b-or-c fallback chain.
type Resolution struct {
	Value       string
	SourceField string
	Resolved    bool
}

// TimeResolution is Resolution for timestamp fields.
type TimeResolution struct {
	Value       time.Time
	SourceField string
	Resolved    bool
}

// ResolveActor picks the actor name: displayName, then name.
func ResolveActor(e Event) Resolution {
	if strings.TrimSpace(e.DisplayName) != "" {
		return Resolution{Value: e.DisplayName, SourceField: "displayName", Resolved: true}
	}
	if strings.TrimSpace(e.Name) != "" {
		return Resolution{Value: e.Name, SourceField: "name", Resolved: true}
	}
	return Resolution{}
}

// ResolveQueueLabel picks the queue label: queueName, then name_of_queue,
// then the category name stored as type.
func ResolveQueueLabel(e Event) Resolution {
	if strings.TrimSpace(e.QueueName) != "" {
		return Resolution{Value: e.QueueName, SourceField: "queueName", Resolved: true}
	}
	if strings.TrimSpace(e.NameOfQueue) != "" {
		return Resolution{Value: e.NameOfQueue, SourceField: "name_of_queue", Resolved: true}
	}
	if strings.TrimSpace(e.Type) != "" {
		return Resolution{Value: e.Type, SourceField: "type", Resolved: true}
	}
	return Resolution{}
}

// ResolveCreatedAt picks the timestamp: createdAt, then time_in.
func ResolveCreatedAt(e Event) TimeResolution {
	if e.CreatedAt != nil {
		return TimeResolution{Value: *e.CreatedAt, SourceField: "createdAt", Resolved: true}
	}
	if e.TimeIn != nil {
		return TimeResolution{Value: *e.TimeIn, SourceField: "time_in", Resolved: true}
	}
	return TimeResolution{}
}

// Normalize builds the display notification for one raw event.
func Normalize(e Event) Notification {
	actor := "Someone"
	if r := ResolveActor(e); r.Resolved {
		actor = r.Value
	}

	queueLabel := "queue"
	if r := ResolveQueueLabel(e); r.Resolved {
		queueLabel = r.Value
	}

	n := Notification{
		ID:        e.ID,
		ActorName: actor,
		QueueName: queueLabel,
		Message:   fmt.Sprintf("%s registered in the %s queue.", actor, strings.ToUpper(queueLabel)),
	}
	if r := ResolveCreatedAt(e); r.Resolved {
		t := r.Value
		n.CreatedAt = &t
	}
	return n
}
