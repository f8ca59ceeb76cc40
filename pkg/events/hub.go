package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type subscriber struct {
	operatorID string
	ch         chan Event
}

// Hub fans events out to in-process subscribers such as websocket sessions.
// Slow subscribers lose events rather than blocking publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
	log  *zap.Logger
}

// NewHub creates an empty Hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{subs: make(map[*subscriber]struct{}), log: log}
}

// Subscribe registers a subscriber for one operator's events, or for all
// events when operatorID is empty. The returned func unsubscribes and closes
// the channel.
func (h *Hub) Subscribe(operatorID string, buffer int) (<-chan Event, func()) {
	sub := &subscriber{operatorID: operatorID, ch: make(chan Event, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish implements Publisher. It never blocks and never fails.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.operatorID != "" && sub.operatorID != ev.OperatorID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.log.Warn("Dropping event for slow subscriber",
				zap.String("event_type", ev.Type),
				zap.String("operator_id", sub.operatorID))
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
