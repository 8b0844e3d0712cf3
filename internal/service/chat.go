package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/events"
	"github.com/lizzietrust/chat-backend/internal/models"
	"github.com/lizzietrust/chat-backend/internal/repository"
)

const defaultHistoryLimit = 50

// ChatService covers direct-chat creation, chat listing, history reads
// and the chat-level read/clear operations.
type ChatService struct {
	chats    ChatRepo
	messages MessageRepo
	cache    RecentCache
	pub      Publisher
	bc       Broadcaster
	log      *zap.SugaredLogger
}

func NewChatService(chats ChatRepo, messages MessageRepo, cache RecentCache, pub Publisher, bc Broadcaster, log *zap.SugaredLogger) *ChatService {
	return &ChatService{chats: chats, messages: messages, cache: cache, pub: pub, bc: bc, log: log}
}

// CreateDirect returns the direct chat for {caller, peer}, creating it on
// first use. Calling twice always yields the same chat document.
func (s *ChatService) CreateDirect(ctx context.Context, callerID, peerID string) (*models.Chat, error) {
	if peerID == "" || peerID == callerID {
		return nil, fmt.Errorf("valid peer id required: %w", apperr.ErrBadRequest)
	}
	chat, created, err := s.chats.GetOrCreateDirect(ctx, callerID, peerID)
	if err != nil {
		return nil, err
	}
	if created {
		s.bc.ToUsers(chat.Participants, EvChatUpdated, payload{"chat_id": chat.ID, "chat": chat})
	}
	return chat, nil
}

func (s *ChatService) List(ctx context.Context, userID string) ([]*models.Chat, error) {
	return s.chats.ListForUser(ctx, userID)
}

// History returns chat messages in chronological order, membership
// checked and deleted-for-caller messages hidden.
func (s *ChatService) History(ctx context.Context, chatID, userID string, limit int64, before time.Time) ([]*models.Message, error) {
	chat, err := s.memberChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.messages.List(ctx, chat.ID, userID, limit, before)
}

// Recent serves the Redis-cached newest messages; it falls back to Mongo
// (and repopulates the cache lazily through the next send).
func (s *ChatService) Recent(ctx context.Context, chatID, userID string, limit int64) ([]*models.Message, error) {
	chat, err := s.memberChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if cached, cerr := s.cache.List(ctx, chat.ID, limit); cerr == nil && len(cached) > 0 {
		return cached, nil
	}
	return s.messages.List(ctx, chat.ID, userID, limit, time.Time{})
}

// MarkRead zeroes the caller's unread counter and stamps every message
// they had not read yet, so the counter and read_by agree afterwards.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID string) (int64, error) {
	chat, err := s.memberChat(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}

	ids, err := s.messages.MarkAllRead(ctx, chat.ID, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if err := s.chats.ResetUnread(ctx, chat.ID, userID); err != nil {
		return 0, err
	}

	n := int64(len(ids))
	if n > 0 {
		s.pub.Publish(ctx, events.MessageRead, chat.ID, payload{
			"chat_id": chat.ID, "user_id": userID, "count": n,
		})
		s.bc.ToChat(chat.ID, EvMessageStatusUpdate, payload{
			"chat_id":     chat.ID,
			"status":      models.StatusRead,
			"user_id":     userID,
			"message_ids": ids,
		})
	}
	s.bc.ToUsers([]string{userID}, EvChatUpdated, payload{"chat_id": chat.ID, "unread": int64(0)})
	return n, nil
}

// Clear wipes the chat's history for everyone and resets all counters.
func (s *ChatService) Clear(ctx context.Context, chatID, userID string) (int64, error) {
	chat, err := s.memberChat(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}

	n, err := s.messages.DeleteByChat(ctx, chat.ID)
	if err != nil {
		return 0, err
	}
	for _, p := range chat.Participants {
		if err := s.chats.SetUnread(ctx, chat.ID, p, 0); err != nil {
			s.log.Warnw("reset unread after clear failed", "chat_id", chat.ID, "user_id", p, "err", err)
		}
	}
	_ = s.cache.Invalidate(ctx, chat.ID)

	s.pub.Publish(ctx, events.ChatCleared, chat.ID, payload{"chat_id": chat.ID, "deleted": n})
	s.bc.ToUsers(chat.Participants, EvMessagesCleared, payload{"chat_id": chat.ID})
	return n, nil
}

func (s *ChatService) memberChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.ErrForbidden
	}
	return chat, nil
}
