package notifications

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// The feed tracks roughly this many recent registrations; a full
// re-normalization per update stays cheap at this scale.
const maxTrackedEvents = 100

// Loader supplies the initial backlog of registration events. Input order
// does not matter, every snapshot is re-sorted.
type Loader interface {
	RecentRegistrations(ctx context.Context, limit int) ([]Event, error)
}

// Aggregator owns the live registration feed. It is constructed in main and
// handed to whoever needs it, with an explicit Start/Stop lifecycle rather
// than a package-level singleton.
type Aggregator struct {
	mu         sync.Mutex
	events     []Event
	watermarks map[string]time.Time
	subs       map[int]chan Notification
	nextSub    int
	stopped    bool

	// now is swappable so tests can place the watermark between events.
	now func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		watermarks: make(map[string]time.Time),
		subs:       make(map[int]chan Notification),
		now:        time.Now,
	}
}

// Start loads the existing backlog. A nil loader starts empty.
func (a *Aggregator) Start(ctx context.Context, loader Loader) error {
	if loader == nil {
		return nil
	}
	events, err := loader.RecentRegistrations(ctx, maxTrackedEvents)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = events
	a.trimLocked()
	return nil
}

// Stop closes every subscriber channel. Publishing after Stop is a no-op.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
}

// Publish appends a registration event and fans the normalized notification
// out to subscribers. Slow subscribers drop rather than block the feed.
func (a *Aggregator) Publish(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	a.events = append(a.events, e)
	a.trimLocked()

	n := Normalize(e)
	for id, ch := range a.subs {
		select {
		case ch <- n:
		default:
			log.Printf("⚠️ Notification subscriber %d is not draining, dropping event %s", id, e.ID)
		}
	}
}

// Subscribe registers a live listener. The returned stop function MUST be
// called on teardown; an abandoned subscription would otherwise receive
// sends forever.
func (a *Aggregator) Subscribe() (<-chan Notification, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan Notification, 16)
	if a.stopped {
		close(ch)
		return ch, func() {}
	}
	a.subs[id] = ch

	stop := func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if sub, ok := a.subs[id]; ok {
			close(sub)
			delete(a.subs, id)
		}
	}
	return ch, stop
}

// Visible recomputes the viewer's notification list from scratch:
// normalized, newest first (no timestamp sorts as epoch, i.e. oldest), and
// without anything at or before the viewer's watermark. Events older than
// the watermark stay in the window; only the view filters them.
func (a *Aggregator) Visible(viewerID string) []Notification {
	a.mu.Lock()
	events := make([]Event, len(a.events))
	copy(events, a.events)
	watermark, hasWatermark := a.watermarks[viewerID]
	a.mu.Unlock()

	items := make([]Notification, 0, len(events))
	for _, e := range events {
		items = append(items, Normalize(e))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return notifMillis(items[i]) > notifMillis(items[j])
	})

	if !hasWatermark {
		return items
	}
	visible := items[:0]
	for _, n := range items {
		if n.CreatedAt != nil && n.CreatedAt.After(watermark) {
			visible = append(visible, n)
		}
	}
	return visible
}

// HasUnread reports whether the viewer's badge should light up.
func (a *Aggregator) HasUnread(viewerID string) bool {
	return len(a.Visible(viewerID)) > 0
}

// Open is the panel-open action: it moves the viewer's watermark to now,
// which simultaneously marks everything currently known as read. Events
// arriving after this instant count as unread again on the next open.
func (a *Aggregator) Open(viewerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watermarks[viewerID] = a.now()
}

func (a *Aggregator) trimLocked() {
	if len(a.events) > maxTrackedEvents {
		a.events = a.events[len(a.events)-maxTrackedEvents:]
	}
}

func notifMillis(n Notification) int64 {
	if n.CreatedAt == nil {
		return 0
	}
	return n.CreatedAt.UnixMilli()
}
