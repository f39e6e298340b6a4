package pubsub

import (
	"sync"
	"time"
)

// Event is a change notification on an owner channel. Clients re-fetch full
// state on receipt, so payloads are hints, not deltas.
type Event struct {
	Type     string      `json:"type"`
	OwnerKey string      `json:"owner_key"`
	Payload  interface{} `json:"payload,omitempty"`
	At       int64       `json:"at"`
}

const subscriberBuffer = 8

// Broker is an in-process publish/subscribe fan-out keyed by owner channel.
// Delivery is at-most-once and best-effort: a slow subscriber's events are
// dropped rather than blocking the publisher.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[int]chan Event),
	}
}

// Subscribe returns a receive channel for key and a cancel func. Cancel is
// safe to call more than once.
func (b *Broker) Subscribe(key string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[key] == nil {
		b.subs[key] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[key][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[key]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(b.subs, key)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish fans ev out to every subscriber of key without blocking.
func (b *Broker) Publish(key string, ev Event) {
	ev.OwnerKey = key
	if ev.At == 0 {
		ev.At = time.Now().Unix()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[key] {
		select {
		case ch <- ev:
		default:
			// subscriber is behind; it will re-fetch on its next event
		}
	}
}

func (b *Broker) SubscriberCount(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}
