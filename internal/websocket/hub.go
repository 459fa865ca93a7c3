package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"bookmarkhub-be/internal/pkg/logger"
	"bookmarkhub-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans bookmark change events out to the owner's open sessions. One user
// may hold several connections (tabs, devices); every one of them gets every
// change so their lists stay in lockstep.
type Hub struct {
	// Registered clients map: OwnerID -> List of Clients (multi-session)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fanout
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OwnerID] = append(h.clients[client.OwnerID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"owner_id": client.OwnerID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.OwnerID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.OwnerID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.OwnerID]) == 0 {
					delete(h.clients, client.OwnerID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"owner_id": client.OwnerID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a change event to every open session of its owner, then
// publishes to Redis so sessions held by other instances get it too.
func (h *Hub) Send(ownerID uuid.UUID, change events.BookmarkChange) {
	// 1. Serialize
	data, _ := json.Marshal(map[string]interface{}{
		"type": "bookmark_change",
		"data": change,
	})

	// 2. Deliver locally
	h.mu.RLock()
	clients, localFound := h.clients[ownerID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"owner_id": ownerID})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	// 3. Publish to Redis for other instances
	if h.rdb != nil {
		payload := map[string]interface{}{
			"target_owner_id": ownerID.String(),
			"message":         data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to "cluster_events"; when a message arrives,
	// deliver it to the target owner's local sessions if we hold any.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetOwnerID string          `json:"target_owner_id"`
			Message       json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		oid, err := uuid.Parse(payload.TargetOwnerID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[oid]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					close(client.Send)
					h.unregister <- client
				}
			}
		}
	}
}
