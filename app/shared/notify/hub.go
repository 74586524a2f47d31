// Package notify is the in-process publish/subscribe registry used to
// announce check-in and match-slip events.
//
// Delivery is synchronous on the publisher's goroutine, in subscription
// order. A handler that returns an error or panics is logged and skipped;
// it never blocks the remaining handlers or fails the publisher.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
)

// Wildcard subscribes a handler to every event.
const Wildcard = "*"

const (
	CheckInProcessed = "check-in-processed"
	QRCodeExpired    = "qr-code-expired"
	SlipCompleted    = "slip-completed"
	DisputeRaised    = "dispute-raised"
	DisputeResolved  = "dispute-resolved"
)

// Event is what handlers receive.
type Event struct {
	Name       string            `json:"name"`
	EntityID   string            `json:"entity_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// Handler reacts to an event.
type Handler func(ctx context.Context, e Event) error

type subscription struct {
	id      string
	event   string
	handler Handler
}

// Hub is an explicitly constructed registry; create one per running service.
type Hub struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID atomic.Uint64
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

// Subscribe registers handler for eventName (or Wildcard) and returns its id.
func (h *Hub) Subscribe(eventName string, handler Handler) string {
	id := "sub-" + strconv.FormatUint(h.nextID.Add(1), 10)

	h.mu.Lock()
	h.subs = append(h.subs, subscription{id: id, event: eventName, handler: handler})
	h.mu.Unlock()

	return id
}

// Unsubscribe removes the subscription and reports whether it existed.
func (h *Hub) Unsubscribe(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers e to every matching subscriber and returns how many
// handlers completed without error.
func (h *Hub) Publish(ctx context.Context, e Event) int {
	h.mu.RLock()
	targets := make([]subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.event == e.Name || s.event == Wildcard {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := h.deliver(ctx, s, e); err != nil {
			h.logger.WarnContext(ctx, "Event handler failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("event", e.Name),
				attr.String("subscription_id", s.id),
				attr.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) deliver(ctx context.Context, s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler %s: %v", s.id, r)
		}
	}()
	return s.handler(ctx, e)
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
