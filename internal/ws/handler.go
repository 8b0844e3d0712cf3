package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/metrics"
	"github.com/lizzietrust/chat-backend/internal/service"
	"github.com/lizzietrust/chat-backend/internal/token"
)

// Client -> server socket event names.
const (
	evSendMessage      = "sendMessage"
	evTyping           = "typing"
	evJoinChat         = "joinChat"
	evLeaveChat        = "leaveChat"
	evMarkAsDelivered  = "markAsDelivered"
	evMarkMessagesRead = "markMessagesAsRead"
	evMarkAllRead      = "markAllMessagesAsRead"
	evGetOnlineUsers   = "getOnlineUsers"
)

// Call-signaling events are relayed opaquely to the target user.
var callEvents = map[string]bool{
	"start_call":    true,
	"answer_call":   true,
	"reject_call":   true,
	"end_call":      true,
	"offer":         true,
	"answer":        true,
	"ice-candidate": true,
}

type inbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Handler authenticates socket upgrades and dispatches inbound events.
// Per the REST/socket split, socket failures are logged and swallowed;
// clients converge via re-emitted state, not error replies.
type Handler struct {
	hub        *Hub
	tokens     *token.Manager
	presence   *service.PresenceService
	messages   *service.MessageService
	chats      *service.ChatService
	cookieName string
	log        *zap.SugaredLogger

	opTimeout time.Duration
}

func NewHandler(hub *Hub, tokens *token.Manager, presence *service.PresenceService, messages *service.MessageService, chats *service.ChatService, cookieName string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		hub:        hub,
		tokens:     tokens,
		presence:   presence,
		messages:   messages,
		chats:      chats,
		cookieName: cookieName,
		log:        log,
		opTimeout:  5 * time.Second,
	}
}

// Serve runs one socket connection to completion. Mounted behind
// websocket.New in the router.
func (h *Handler) Serve(conn *websocket.Conn) {
	tok := conn.Cookies(h.cookieName)
	if tok == "" {
		tok = conn.Query("token")
	}
	claims, err := h.tokens.Verify(tok)
	if err != nil {
		h.log.Debugw("socket auth failed", "err", err)
		_ = conn.Close()
		return
	}
	userID := claims.UserID
	connID := uuid.NewString()

	client := NewClient(userID, connID, conn)
	h.hub.Add(client)
	metrics.WSConnections.Inc()
	go client.WritePump()

	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	h.presence.Connected(ctx, userID, connID)
	cancel()

	// bulk delivered sweep: everything sent to this user while they
	// were away flips to delivered
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.messages.DeliveredSweep(ctx, userID); err != nil {
			h.log.Warnw("delivered sweep failed", "user_id", userID, "err", err)
		}
	}()

	client.readLoop(func(data []byte) {
		h.dispatch(client, data)
	})

	client.Close()
	h.hub.Remove(client)
	metrics.WSConnections.Dec()

	ctx, cancel = context.WithTimeout(context.Background(), h.opTimeout)
	h.presence.Disconnected(ctx, userID, connID)
	cancel()
}

func (h *Handler) dispatch(c *Client, data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		h.log.Debugw("bad socket frame", "user_id", c.UserID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()

	switch {
	case in.Event == evSendMessage:
		var p service.SendInput
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return
		}
		p.SenderID = c.UserID
		if _, err := h.messages.Send(ctx, p); err != nil {
			h.log.Warnw("socket send failed", "user_id", c.UserID, "err", err)
		}

	case in.Event == evTyping:
		var p struct {
			ChatID string `json:"chat_id"`
			Typing bool   `json:"typing"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		h.hub.ToChat(p.ChatID, service.EvTyping, map[string]any{
			"chat_id": p.ChatID, "user_id": c.UserID, "typing": p.Typing,
		})

	case in.Event == evJoinChat:
		var p struct {
			ChatID string `json:"chat_id"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		h.hub.Join(p.ChatID, c.UserID)
		// joining a chat counts as delivery for its pending messages
		if err := h.messages.MarkChatDelivered(ctx, p.ChatID, c.UserID); err != nil {
			h.log.Warnw("join delivery failed", "chat_id", p.ChatID, "err", err)
		}

	case in.Event == evLeaveChat:
		var p struct {
			ChatID string `json:"chat_id"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		h.hub.Leave(p.ChatID, c.UserID)

	case in.Event == evMarkAsDelivered:
		var p struct {
			MessageID string `json:"message_id"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.MessageID == "" {
			return
		}
		if _, err := h.messages.MarkDelivered(ctx, p.MessageID, c.UserID); err != nil {
			h.log.Warnw("mark delivered failed", "message_id", p.MessageID, "err", err)
		}

	case in.Event == evMarkMessagesRead:
		var p struct {
			MessageIDs []string `json:"message_ids"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return
		}
		for _, id := range p.MessageIDs {
			if _, err := h.messages.MarkRead(ctx, id, c.UserID); err != nil {
				h.log.Warnw("mark read failed", "message_id", id, "err", err)
			}
		}

	case in.Event == evMarkAllRead:
		var p struct {
			ChatID string `json:"chat_id"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		if _, err := h.chats.MarkRead(ctx, p.ChatID, c.UserID); err != nil {
			h.log.Warnw("mark all read failed", "chat_id", p.ChatID, "err", err)
		}

	case in.Event == evGetOnlineUsers:
		h.hub.ToUsers([]string{c.UserID}, service.EvOnlineUsers, map[string]any{
			"user_ids": h.presence.Online(),
		})

	case callEvents[in.Event]:
		h.relayCall(c, in)

	default:
		h.log.Debugw("unknown socket event", "event", in.Event, "user_id", c.UserID)
	}
}

// relayCall forwards a signaling payload to the target user untouched,
// stamping the caller id.
func (h *Handler) relayCall(c *Client, in inbound) {
	var p map[string]any
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return
	}
	to, _ := p["to"].(string)
	if to == "" {
		return
	}
	p["from"] = c.UserID
	h.hub.ToUsers([]string{to}, in.Event, p)
}
