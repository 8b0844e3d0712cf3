package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// frame is the wire shape of every server -> client event.
type frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub tracks connected clients per user and chat-room membership. It is
// the process-wide fan-out point implementing service.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*Client // userID -> connID -> client
	rooms   map[string]map[string]bool    // chatID -> userID set
	log     *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[string]map[string]*Client),
		rooms:   make(map[string]map[string]bool),
		log:     log,
	}
}

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[string]*Client)
		h.clients[c.UserID] = set
	}
	set[c.ConnID] = c
}

func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c.ConnID)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
			for _, members := range h.rooms {
				delete(members, c.UserID)
			}
		}
	}
}

func (h *Hub) Join(chatID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[chatID]
	if !ok {
		members = make(map[string]bool)
		h.rooms[chatID] = members
	}
	members[userID] = true
}

func (h *Hub) Leave(chatID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[chatID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// ToUsers delivers to every live connection of the listed users.
func (h *Hub) ToUsers(userIDs []string, event string, payload any) {
	b, err := marshalFrame(event, payload)
	if err != nil {
		h.log.Warnw("marshal frame failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range userIDs {
		for _, c := range h.clients[id] {
			c.Send(b)
		}
	}
}

// ToChat delivers to users currently joined to the chat room.
func (h *Hub) ToChat(chatID string, event string, payload any) {
	b, err := marshalFrame(event, payload)
	if err != nil {
		h.log.Warnw("marshal frame failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for userID := range h.rooms[chatID] {
		for _, c := range h.clients[userID] {
			c.Send(b)
		}
	}
}

// ToAll delivers to every connected client.
func (h *Hub) ToAll(event string, payload any) {
	b, err := marshalFrame(event, payload)
	if err != nil {
		h.log.Warnw("marshal frame failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for _, c := range set {
			c.Send(b)
		}
	}
}

// InRoom reports whether a user has joined a chat room.
func (h *Hub) InRoom(chatID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[chatID][userID]
}

// Connections returns the number of live connections for a user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func marshalFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(frame{Event: event, Payload: payload})
}
