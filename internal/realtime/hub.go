// Package realtime fans out per-event updates to connected clients.
// Delivery is best effort and at most once: a slow subscriber loses messages, it never stalls a publisher.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

const (
	TypeTicketsUpdated = "eventTicketsUpdated"
	TypeNewComment     = "newComment"

	defaultBuffer = 16
)

// Message is one update on an event topic
type Message struct {
	Type    string          `json:"type"`
	EventID string          `json:"eventId"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// TicketsUpdated is the payload of TypeTicketsUpdated
type TicketsUpdated struct {
	EventID          string `json:"eventId"`
	AvailableTickets int    `json:"availableTickets"`
}

// NewMessage marshals payload into a message for eventID
func NewMessage(msgType, eventID string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, EventID: eventID, Payload: raw, SentAt: time.Now().UTC()}, nil
}

// Notifier is what the booking and payment flows publish through
type Notifier interface {
	Publish(ctx context.Context, eventID string, msg Message) error
}

type Subscription struct {
	eventID string
	ch      chan Message
	once    sync.Once
}

func (s *Subscription) C() <-chan Message {
	return s.ch
}

func (s *Subscription) EventID() string {
	return s.eventID
}

// Hub is the in-process topic registry
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: defaultBuffer,
	}
}

func (h *Hub) Subscribe(eventID string) *Subscription {
	sub := &Subscription{eventID: eventID, ch: make(chan Message, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[eventID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[eventID] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if subs, ok := h.topics[sub.eventID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.eventID)
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.ch) })
}

// Publish delivers msg to the local subscribers of eventID
func (h *Hub) Publish(_ context.Context, eventID string, msg Message) error {
	h.deliver(eventID, msg)
	return nil
}

func (h *Hub) deliver(eventID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[eventID] {
		select {
		case sub.ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped counts messages discarded because a subscriber buffer was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Subscribers reports the local subscriber count of eventID
func (h *Hub) Subscribers(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[eventID])
}
