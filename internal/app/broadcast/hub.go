/*
Package broadcast fans session events out to every connected session.

The Hub owns one buffered channel per registered session. Publish serialises a
Message to JSON once and offers the same bytes to every channel; receivers decide
for themselves whether an event concerns them.
*/
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"telebbs/internal/pkg/logx"
)

// subscriberBuffer is the per-session queue depth. A session that falls this far
// behind loses events rather than stalling publishers.
const subscriberBuffer = 256

// Event type tags carried in Message.EventType.
const (
	UserLogin     = "user_login"
	Logout        = "logout"
	AnonLogout    = "anon_logout"
	RoomJoin      = "room_join"
	RoomLeave     = "room_leave"
	RoomMessage   = "room_message"
	DirectMessage = "direct_message"
)

// Message is the wire form of a hub event. Zero ids are omitted.
type Message struct {
	EventType string `json:"event_type"`
	UserID    int64  `json:"user_id,omitempty"`
	RoomID    int64  `json:"room_id,omitempty"`
	ToUserID  int64  `json:"to_user_id,omitempty"`
}

// Decode parses a payload produced by Publish.
func Decode(payload []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(payload, &msg)
	return msg, err
}

// Hub is the process-wide publish/subscribe fan-out.
//
// Delivery is best effort. An event offered to a full channel is dropped for
// that subscriber and never retried; the subscriber catches up on the next event
// it receives, since every re-render re-reads the store. A session's own logout
// can be dropped the same way. Unregister closes the channel, so its listener
// still stops.
type Hub struct {
	// subscribers maps a session id to its delivery channel.
	subscribers map[string]chan []byte

	// closed is set by Shutdown; later registrations get an already-closed channel.
	closed bool

	// mu protects subscribers and closed. Publish holds it for the whole fan-out
	// so every subscriber sees events in the same order.
	mu sync.Mutex

	// structured logger with hub context.
	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan []byte),
		logger:      logx.Component("Hub"),
	}
}

// Register adds a subscriber and returns its receive channel. Registering an id
// twice replaces (and closes) the previous channel.
func (h *Hub) Register(id string) <-chan []byte {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch
	}
	if old, ok := h.subscribers[id]; ok {
		h.logger.Warn().Str("session_id", id).Msg("Session re-registered. Closing previous channel.")
		close(old)
	}
	h.subscribers[id] = ch

	h.logger.Debug().Str("session_id", id).Int("subscribers", len(h.subscribers)).Msg("Session registered.")
	return ch
}

// Unregister removes a subscriber and closes its channel. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	close(ch)

	h.logger.Debug().Str("session_id", id).Int("subscribers", len(h.subscribers)).Msg("Session unregistered.")
}

// Publish delivers msg to every registered subscriber, including the sender.
// It never blocks: a full subscriber queue drops the event for that subscriber only.
func (h *Hub) Publish(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", msg.EventType).Msg("Error marshaling hub message.")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- payload:
		default:
			h.logger.Warn().
				Str("session_id", id).
				Str("event_type", msg.EventType).
				Msg("Subscriber queue full, dropping event.")
		}
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Shutdown closes every subscriber channel so listeners drain and exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}

	h.logger.Info().Msg("Hub shutdown complete.")
}
