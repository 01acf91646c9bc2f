// Package network provides the websocket activity feed served by
// glow-syncd: connected clients receive friend activity events as they
// are appended to the log.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/calmloop/glowcore/internal/events"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
)

// Hub maintains the set of active feed clients and broadcasts activity
// events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	stats      *metrics.Collector
}

// NewHub initializes an activity feed hub. stats may be nil.
func NewHub(log *logger.Logger, stats *metrics.Collector) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		stats:      stats,
	}
}

// Run starts the hub's main loop to handle client connections and
// broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Activity feed hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.stats != nil {
				h.stats.WSClientsActive.Inc()
			}
			h.logger.Info("Activity feed client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if h.stats != nil {
					h.stats.WSClientsActive.Dec()
				}
				h.logger.Info("Activity feed client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent serializes an activity event and sends it to all
// connected clients.
func (h *Hub) BroadcastEvent(event events.ActivityEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize activity event for broadcast: " + err.Error())
		return
	}
	h.broadcast <- payload
}

// StartEventPoller spawns a goroutine that polls the activity log and
// pushes new events to the hub. The hub runs independently from the
// engine while picking up the same events.
func (h *Hub) StartEventPoller(ctx context.Context, log *events.Log) {
	go func() {
		pollInterval := time.NewTicker(200 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessed := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				all := log.Replay()
				if len(all) > lastProcessed {
					for _, event := range all[lastProcessed:] {
						h.BroadcastEvent(event)
					}
					lastProcessed = len(all)
				}
			}
		}
	}()
}
