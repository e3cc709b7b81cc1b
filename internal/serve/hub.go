package serve

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ClientCounter tracks connected viewers. *metrics.Collector implements it.
type ClientCounter interface {
	ClientConnected()
	ClientDisconnected()
}

type nopCounter struct{}

func (nopCounter) ClientConnected()    {}
func (nopCounter) ClientDisconnected() {}

// Hub fans frames out to every connected client. A client that cannot
// keep up drops frames instead of stalling the others; the next frame
// supersedes the lost one anyway.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte

	counter ClientCounter
	logger  *zap.Logger
}

// NewHub creates a hub. counter may be nil.
func NewHub(counter ClientCounter, logger *zap.Logger) *Hub {
	if counter == nil {
		counter = nopCounter{}
	}
	return &Hub{
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		counter:    counter,
		logger:     logger,
	}
}

// Run is the hub event loop; it returns when ctx is cancelled after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
				h.counter.ClientDisconnected()
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			latest := h.latest
			h.mu.Unlock()
			h.counter.ClientConnected()
			h.logger.Info("viewer connected", zap.String("client", c.id))
			if latest != nil {
				c.offer(latest)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.counter.ClientDisconnected()
				h.logger.Info("viewer disconnected", zap.String("client", c.id))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			h.latest = msg
			for c := range h.clients {
				c.offer(msg)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the oldest queued frame is discarded. Broadcast must be called
// from a single goroutine.
func (h *Hub) Broadcast(msg []byte) {
	for {
		select {
		case h.broadcast <- msg:
			return
		default:
		}
		select {
		case <-h.broadcast:
			h.logger.Debug("broadcast queue full; dropping oldest frame")
		default:
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
