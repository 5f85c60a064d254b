package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-helpdesk-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries desk-feed messages between instances.
const ClusterChannel = "helpdesk_desk_feed"

// Message is what desk agents receive.
type Message struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data"`
	SentAt time.Time   `json:"sent_at"`
}

type clusterEnvelope struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Hub tracks the desk agents connected to this instance and fans messages out to them. With
// redis configured, every broadcast is also relayed to the other instances.
type Hub struct {
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	rdb        *redis.Client
	instanceID string
	logger     logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run relays messages published by other instances until ctx is done. Without redis it only
// waits for ctx.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}

	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Dropping malformed cluster message", map[string]interface{}{"error": err})
				continue
			}
			if env.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(env.Message)
		}
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Hub", "Desk agent connected", map[string]interface{}{"agent_id": c.AgentID, "connected": total})
}

// Unregister removes the client and closes its send channel. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.Send)
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Hub", "Desk agent disconnected", map[string]interface{}{"agent_id": c.AgentID, "connected": total})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every connected desk agent on every instance.
// It fails only before local delivery; a failed cluster relay afterwards is logged, not returned.
func (h *Hub) Broadcast(ctx context.Context, messageType string, data interface{}) error {
	payload, err := json.Marshal(Message{Type: messageType, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	h.deliverLocal(payload)

	if h.rdb == nil {
		return nil
	}
	env, err := json.Marshal(clusterEnvelope{Origin: h.instanceID, Message: payload})
	if err != nil {
		return err
	}
	if err := h.rdb.Publish(ctx, ClusterChannel, env).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to relay desk message to cluster", map[string]interface{}{"error": err})
	}
	return nil
}

func (h *Hub) deliverLocal(payload []byte) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.Send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Hub", "Client send buffer full, disconnecting", map[string]interface{}{"agent_id": c.AgentID})
		h.Unregister(c)
	}
}
