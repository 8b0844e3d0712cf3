package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/models"
	"github.com/lizzietrust/chat-backend/internal/repository"
)

// ChannelService handles channel CRUD and membership. All mutating
// operations go through requireAdmin; the last remaining admin can never
// be removed or demoted.
type ChannelService struct {
	chats ChatRepo
	bc    Broadcaster
	log   *zap.SugaredLogger
}

func NewChannelService(chats ChatRepo, bc Broadcaster, log *zap.SugaredLogger) *ChannelService {
	return &ChannelService{chats: chats, bc: bc, log: log}
}

type CreateChannelInput struct {
	Name      string   `json:"name"`
	IsPrivate bool     `json:"is_private"`
	Members   []string `json:"members"`
}

func (s *ChannelService) Create(ctx context.Context, creatorID string, in CreateChannelInput) (*models.Chat, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("channel name required: %w", apperr.ErrBadRequest)
	}

	members := map[string]bool{creatorID: true}
	for _, m := range in.Members {
		if m != "" {
			members[m] = true
		}
	}
	participants := make([]string, 0, len(members))
	for m := range members {
		participants = append(participants, m)
	}

	c := &models.Chat{
		Name:         in.Name,
		IsPrivate:    in.IsPrivate,
		Participants: participants,
		Admins:       []string{creatorID},
		CreatedBy:    creatorID,
	}
	if err := s.chats.CreateChannel(ctx, c); err != nil {
		return nil, err
	}
	s.bc.ToUsers(c.Participants, EvChatUpdated, payload{"chat_id": c.ID, "chat": c})
	return c, nil
}

func (s *ChannelService) Update(ctx context.Context, chatID, actorID, name string, isPrivate bool) (*models.Chat, error) {
	if name == "" {
		return nil, fmt.Errorf("channel name required: %w", apperr.ErrBadRequest)
	}
	if _, err := s.requireAdmin(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	c, err := s.chats.UpdateChannel(ctx, chatID, name, isPrivate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	s.bc.ToUsers(c.Participants, EvChatUpdated, payload{"chat_id": c.ID, "chat": c})
	return c, nil
}

func (s *ChannelService) AddMember(ctx context.Context, chatID, actorID, userID string) (*models.Chat, error) {
	channel, err := s.requireAdmin(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}
	if channel.HasParticipant(userID) {
		return channel, nil
	}
	if err := s.chats.AddMember(ctx, chatID, userID); err != nil {
		return nil, err
	}
	updated, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	s.bc.ToUsers(updated.Participants, EvChatUpdated, payload{"chat_id": updated.ID, "chat": updated})
	return updated, nil
}

// RemoveMember takes a user out of the channel. Members may remove
// themselves (leave); removing anyone else requires admin. Either way the
// sole remaining admin cannot go.
func (s *ChannelService) RemoveMember(ctx context.Context, chatID, actorID, userID string) (*models.Chat, error) {
	channel, err := s.channel(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if actorID != userID && !channel.IsAdmin(actorID) {
		return nil, apperr.ErrForbidden
	}
	if channel.IsOnlyAdmin(userID) {
		return nil, apperr.ErrLastAdmin
	}
	if err := s.chats.RemoveMember(ctx, chatID, userID); err != nil {
		return nil, err
	}
	updated, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	s.bc.ToUsers(append(updated.Participants, userID), EvChatUpdated, payload{"chat_id": updated.ID, "chat": updated})
	return updated, nil
}

// SetAdmin promotes or demotes a member. Demoting the last admin is
// rejected with state unchanged.
func (s *ChannelService) SetAdmin(ctx context.Context, chatID, actorID, userID string, admin bool) (*models.Chat, error) {
	channel, err := s.requireAdmin(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}
	if !channel.HasParticipant(userID) {
		return nil, fmt.Errorf("user is not a channel member: %w", apperr.ErrBadRequest)
	}
	if !admin && channel.IsOnlyAdmin(userID) {
		return nil, apperr.ErrLastAdmin
	}
	if err := s.chats.SetAdmin(ctx, chatID, userID, admin); err != nil {
		return nil, err
	}
	updated, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	s.bc.ToUsers(updated.Participants, EvChatUpdated, payload{"chat_id": updated.ID, "chat": updated})
	return updated, nil
}

func (s *ChannelService) channel(ctx context.Context, chatID string) (*models.Chat, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if c.Type != models.ChatTypeChannel {
		return nil, fmt.Errorf("not a channel: %w", apperr.ErrBadRequest)
	}
	return c, nil
}

// requireAdmin is the one policy gate for mutating channel operations.
func (s *ChannelService) requireAdmin(ctx context.Context, chatID, actorID string) (*models.Chat, error) {
	c, err := s.channel(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.IsAdmin(actorID) {
		return nil, apperr.ErrForbidden
	}
	return c, nil
}
