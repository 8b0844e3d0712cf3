package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/events"
	"github.com/lizzietrust/chat-backend/internal/metrics"
	"github.com/lizzietrust/chat-backend/internal/models"
	"github.com/lizzietrust/chat-backend/internal/repository"
)

// MessageService owns the message lifecycle: send, the
// sent -> delivered -> read status machine, edits and deletes.
type MessageService struct {
	chats    ChatRepo
	messages MessageRepo
	cache    RecentCache
	pub      Publisher
	bc       Broadcaster
	log      *zap.SugaredLogger
}

func NewMessageService(chats ChatRepo, messages MessageRepo, cache RecentCache, pub Publisher, bc Broadcaster, log *zap.SugaredLogger) *MessageService {
	return &MessageService{chats: chats, messages: messages, cache: cache, pub: pub, bc: bc, log: log}
}

type SendInput struct {
	ChatID   string `json:"chat_id"`
	Content  string `json:"content"`
	FileURL  string `json:"file_url"`
	SenderID string `json:"-"`
}

// Send persists the message, folds it into the chat's unread counters
// (every recipient +1, sender reset to 0), then fans out newMessage and
// chatUpdated to all participants.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*models.Message, error) {
	if in.ChatID == "" || (in.Content == "" && in.FileURL == "") {
		return nil, fmt.Errorf("chat_id and content or file_url required: %w", apperr.ErrBadRequest)
	}

	chat, err := s.chats.GetByID(ctx, in.ChatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(in.SenderID) {
		return nil, apperr.ErrForbidden
	}

	m := &models.Message{
		ChatID:   in.ChatID,
		SenderID: in.SenderID,
		Content:  in.Content,
		FileURL:  in.FileURL,
	}
	if err := s.messages.Insert(ctx, m); err != nil {
		return nil, err
	}

	preview := &models.MessagePreview{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		FileURL:   m.FileURL,
		CreatedAt: m.CreatedAt,
	}
	if err := s.chats.ApplyMessage(ctx, chat, preview); err != nil {
		// message is persisted; counters will be repaired by the
		// reconciler, so log instead of failing the send
		s.log.Errorw("apply message to chat failed", "chat_id", chat.ID, "err", err)
	}

	if err := s.cache.Push(ctx, m); err != nil {
		s.log.Debugw("recent cache push failed", "chat_id", chat.ID, "err", err)
	}
	s.pub.Publish(ctx, events.MessageNew, m.ID, m)
	metrics.MessagesSent.Inc()

	s.bc.ToUsers(chat.Participants, EvNewMessage, m)
	s.bc.ToUsers(chat.Participants, EvChatUpdated, chatUpdatePayload(chat.ID, preview))
	return m, nil
}

// MarkDelivered moves one message forward to delivered on behalf of a
// recipient and re-emits the status to the chat room.
func (s *MessageService) MarkDelivered(ctx context.Context, messageID, userID string) (*models.Message, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if m.SenderID == userID {
		return m, nil
	}
	if err := s.requireMember(ctx, m.ChatID, userID); err != nil {
		return nil, err
	}

	updated, err := s.messages.MarkDelivered(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if updated.Status != m.Status {
		metrics.StatusTransitions.WithLabelValues(models.StatusDelivered).Inc()
	}
	s.emitStatus(updated)
	return updated, nil
}

// DeliveredSweep flips every sent message addressed to the user to
// delivered across all their chats. Runs when their socket connects.
func (s *MessageService) DeliveredSweep(ctx context.Context, userID string) error {
	chatIDs, err := s.chats.IDsForUser(ctx, userID)
	if err != nil {
		return err
	}
	affected, err := s.messages.MarkDeliveredForChats(ctx, chatIDs, userID)
	if err != nil {
		return err
	}
	for chatID, msgIDs := range affected {
		metrics.StatusTransitions.WithLabelValues(models.StatusDelivered).Inc()
		s.bc.ToChat(chatID, EvMessageStatusUpdate, payload{
			"chat_id":     chatID,
			"status":      models.StatusDelivered,
			"user_id":     userID,
			"message_ids": msgIDs,
		})
	}
	return nil
}

// MarkChatDelivered is the joinChat variant of the sweep, scoped to one
// chat.
func (s *MessageService) MarkChatDelivered(ctx context.Context, chatID, userID string) error {
	affected, err := s.messages.MarkDeliveredForChats(ctx, []string{chatID}, userID)
	if err != nil {
		return err
	}
	for id, msgIDs := range affected {
		metrics.StatusTransitions.WithLabelValues(models.StatusDelivered).Inc()
		s.bc.ToChat(id, EvMessageStatusUpdate, payload{
			"chat_id":     id,
			"status":      models.StatusDelivered,
			"user_id":     userID,
			"message_ids": msgIDs,
		})
	}
	return nil
}

// MarkRead adds the reader to the message's read_by set (idempotent) and
// appends at most one read receipt, then re-derives the reader's unread
// counter for the chat.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) (*models.Message, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if m.SenderID == userID {
		return m, nil
	}
	if err := s.requireMember(ctx, m.ChatID, userID); err != nil {
		return nil, err
	}

	already := m.ReadByUser(userID)
	updated, err := s.messages.MarkRead(ctx, messageID, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !already {
		metrics.StatusTransitions.WithLabelValues(models.StatusRead).Inc()
		if n, cerr := s.messages.CountUnread(ctx, updated.ChatID, userID); cerr == nil {
			_ = s.chats.SetUnread(ctx, updated.ChatID, userID, n)
		}
		s.pub.Publish(ctx, events.MessageRead, updated.ID, payload{
			"message_id": updated.ID, "chat_id": updated.ChatID, "user_id": userID,
		})
	}
	s.emitStatus(updated)
	return updated, nil
}

// Edit lets the sender rewrite content within the edit window; the
// previous content is archived in edit_history.
func (s *MessageService) Edit(ctx context.Context, messageID, userID, content string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("content required: %w", apperr.ErrBadRequest)
	}
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if m.SenderID != userID {
		return nil, apperr.ErrForbidden
	}
	now := time.Now().UTC()
	if !m.Editable(now) {
		return nil, apperr.ErrEditWindow
	}

	updated, err := s.messages.Edit(ctx, messageID, m.Content, content, now)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Invalidate(ctx, updated.ChatID)
	s.pub.Publish(ctx, events.MessageEdited, updated.ID, updated)
	s.bc.ToChat(updated.ChatID, EvMessageEdited, updated)
	return updated, nil
}

// Delete removes the message for the caller only, or for everyone when
// the caller is the sender and asks for it.
func (s *MessageService) Delete(ctx context.Context, messageID, userID string, forEveryone bool) (*models.Message, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if forEveryone {
		if m.SenderID != userID {
			return nil, apperr.ErrForbidden
		}
		deleted, err := s.messages.DeleteForEveryone(ctx, messageID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Invalidate(ctx, deleted.ChatID)
		s.pub.Publish(ctx, events.MessageDeleted, deleted.ID, payload{
			"message_id": deleted.ID, "chat_id": deleted.ChatID, "scope": "everyone",
		})
		s.bc.ToChat(deleted.ChatID, EvMessageDeleted, payload{
			"message_id": deleted.ID, "chat_id": deleted.ChatID, "scope": "everyone",
		})
		return deleted, nil
	}

	masked, err := s.messages.DeleteForUser(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Invalidate(ctx, masked.ChatID)
	return masked, nil
}

// requireMember gates status mutations the same way memberChat gates the
// chat-level operations: only participants may touch a message's state.
func (s *MessageService) requireMember(ctx context.Context, chatID, userID string) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperr.ErrForbidden
	}
	return nil
}

func (s *MessageService) emitStatus(m *models.Message) {
	s.bc.ToChat(m.ChatID, EvMessageStatusUpdate, payload{
		"message_id":   m.ID,
		"chat_id":      m.ChatID,
		"status":       m.Status,
		"read_by":      m.ReadBy,
		"delivered_to": m.DeliveredTo,
	})
}

type payload = map[string]any

func chatUpdatePayload(chatID string, preview *models.MessagePreview) payload {
	return payload{"chat_id": chatID, "last_message": preview}
}
