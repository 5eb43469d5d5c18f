package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/el-hoshino/HowAwayAreYou/internal/log"
)

// sink is anything that can receive broadcast messages
type sink interface {
	queue() chan Message
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Only the Run goroutine touches the client set.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[sink]struct{}
	broadcast  chan Message
	register   chan sink
	unregister chan sink
	done       chan struct{}

	// last message, replayed to new clients so they start with current state
	replayLast bool
	last       *Message

	mu      sync.RWMutex
	count   int
	dropped int
}

// New creates a hub. With replayLast set, new clients immediately get the
// most recent message.
func New(name string, replayLast bool) *Hub {
	return &Hub{
		name:       name,
		logger:     log.With("component", "hub", "hub", name),
		clients:    make(map[sink]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan sink),
		unregister: make(chan sink),
		done:       make(chan struct{}),
		replayLast: replayLast,
	}
}

// Run is the hub's main loop; it returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.queue())
			delete(h.clients, c)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.replayLast && h.last != nil {
				select {
				case c.queue() <- *h.last:
				default:
				}
			}
			h.setCount(len(h.clients))
			h.logger.Info("client connected", "total", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.queue())
			}
			h.setCount(len(h.clients))
			h.logger.Info("client disconnected", "remaining", len(h.clients))

		case msg := <-h.broadcast:
			if h.replayLast {
				m := msg
				h.last = &m
			}
			for c := range h.clients {
				select {
				case c.queue() <- msg:
				default:
					// too slow to keep up
					close(c.queue())
					delete(h.clients, c)
					h.logger.Warn("dropped slow client")
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

// add registers c; it reports false once the hub has stopped
func (h *Hub) add(c sink) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c sink) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Broadcast queues a message for all clients; it never blocks
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts v
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data such as camera frames
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Dropped returns how many broadcasts were discarded because the hub was backed up
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Name returns the hub name
func (h *Hub) Name() string {
	return h.name
}
