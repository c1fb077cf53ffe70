package monitor

import (
	"sync"

	"github.com/wattnudge/wattnudge/internal/engine"
)

// EventKind names the push events the presentation layer can observe
type EventKind string

const (
	EventPriceUpdated           EventKind = "price_updated"
	EventHourlyUpdated          EventKind = "hourly_updated"
	EventWeatherUpdated         EventKind = "weather_updated"
	EventRecommendationsUpdated EventKind = "recommendations_updated"
	EventNotification           EventKind = "notification"
)

// Event is one state-change broadcast. Only the payload matching the
// kind is set.
type Event struct {
	Kind            EventKind                   `json:"kind"`
	Current         *engine.HourlyRecord        `json:"current,omitempty"`
	Today           *engine.DailySeries         `json:"today,omitempty"`
	Tomorrow        *engine.DailySeries         `json:"tomorrow,omitempty"`
	Sun             *engine.SunSnapshot         `json:"sun,omitempty"`
	Recommendations *engine.RecommendationState `json:"recommendations,omitempty"`
	Notification    *engine.Notification        `json:"notification,omitempty"`
}

const subscriberBuffer = 16

// Bus fans events out to any number of subscribers. Publishing never
// blocks: a subscriber that stops draining its channel misses events.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new consumer. The returned cancel func must be
// called to release the subscription.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish broadcasts an event to every subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
