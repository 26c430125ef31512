package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/presence"
)

// Hub fans committed domain events out to the websocket connections of their
// recipients. It subscribes to the notification bus; it never reads or
// writes application state itself.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan envelope
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	presence   *presence.Store // optional
	mu         sync.Mutex
}

type envelope struct {
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	recipients []uuid.UUID
}

func NewHub(presenceStore *presence.Store) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan envelope, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		presence:   presenceStore,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for _, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			h.markOnline(client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.send)
				}
				if len(conns) == 0 {
					delete(h.clients, client.userID)
					h.markOffline(client.userID)
				}
			}
			h.mu.Unlock()

		case env := <-h.events:
			data, err := json.Marshal(env)
			if err != nil {
				log.Error().Err(err).Str("event", env.Event).Msg("ws: marshal failed")
				continue
			}
			h.mu.Lock()
			for _, userID := range env.recipients {
				for client := range h.clients[userID] {
					select {
					case client.send <- data:
					default:
						// Slow consumer; drop the connection.
						delete(h.clients[userID], client)
						close(client.send)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify implements notify.Subscriber. Undeliverable events are dropped;
// delivery is best-effort by contract.
func (h *Hub) Notify(event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", event.EventName()).Msg("ws: encode failed")
		return
	}
	env := envelope{
		Event:      event.EventName(),
		Payload:    payload,
		recipients: event.EventRecipients(),
	}
	select {
	case h.events <- env:
	case <-h.stop:
	}
}

// Stop shuts the hub down and waits for Run to drain. Safe to call from
// multiple goroutines; the flag is claimed under the mutex so only one caller
// closes the stop channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// Register attaches a connected client and starts its pumps.
func (h *Hub) Register(client *Client) {
	h.register <- client
	go client.writePump()
	go client.readPump()
}

func (h *Hub) markOnline(userID uuid.UUID) {
	if h.presence == nil {
		return
	}
	if err := h.presence.SetOnline(context.Background(), userID); err != nil {
		log.Warn().Err(err).Str("userId", userID.String()).Msg("ws: presence update failed")
	}
}

func (h *Hub) markOffline(userID uuid.UUID) {
	if h.presence == nil {
		return
	}
	if err := h.presence.SetOffline(context.Background(), userID); err != nil {
		log.Warn().Err(err).Str("userId", userID.String()).Msg("ws: presence update failed")
	}
}
