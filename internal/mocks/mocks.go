package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lizzietrust/chat-backend/internal/models"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) Create(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepoMock) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	var u *models.User
	if v := args.Get(0); v != nil {
		u = v.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepoMock) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	var u *models.User
	if v := args.Get(0); v != nil {
		u = v.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepoMock) List(ctx context.Context, excludeID string) ([]*models.User, error) {
	args := m.Called(ctx, excludeID)
	var out []*models.User
	if v := args.Get(0); v != nil {
		out = v.([]*models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepoMock) Search(ctx context.Context, excludeID, query string) ([]*models.User, error) {
	args := m.Called(ctx, excludeID, query)
	var out []*models.User
	if v := args.Get(0); v != nil {
		out = v.([]*models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, id string, fields bson.M) (*models.User, error) {
	args := m.Called(ctx, id, fields)
	var u *models.User
	if v := args.Get(0); v != nil {
		u = v.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepoMock) SetOnline(ctx context.Context, id string, online bool) error {
	args := m.Called(ctx, id, online)
	return args.Error(0)
}

func (m *UserRepoMock) MarkOfflineExcept(ctx context.Context, onlineIDs []string) (int64, error) {
	args := m.Called(ctx, onlineIDs)
	return args.Get(0).(int64), args.Error(1)
}

type ChatRepoMock struct {
	mock.Mock
}

func (m *ChatRepoMock) GetOrCreateDirect(ctx context.Context, userA, userB string) (*models.Chat, bool, error) {
	args := m.Called(ctx, userA, userB)
	var c *models.Chat
	if v := args.Get(0); v != nil {
		c = v.(*models.Chat)
	}
	return c, args.Bool(1), args.Error(2)
}

func (m *ChatRepoMock) CreateChannel(ctx context.Context, c *models.Chat) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ChatRepoMock) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	args := m.Called(ctx, id)
	var c *models.Chat
	if v := args.Get(0); v != nil {
		c = v.(*models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepoMock) ListForUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	args := m.Called(ctx, userID)
	var out []*models.Chat
	if v := args.Get(0); v != nil {
		out = v.([]*models.Chat)
	}
	return out, args.Error(1)
}

func (m *ChatRepoMock) IDsForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var out []string
	if v := args.Get(0); v != nil {
		out = v.([]string)
	}
	return out, args.Error(1)
}

func (m *ChatRepoMock) AllIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var out []string
	if v := args.Get(0); v != nil {
		out = v.([]string)
	}
	return out, args.Error(1)
}

func (m *ChatRepoMock) ApplyMessage(ctx context.Context, chat *models.Chat, preview *models.MessagePreview) error {
	args := m.Called(ctx, chat, preview)
	return args.Error(0)
}

func (m *ChatRepoMock) ResetUnread(ctx context.Context, chatID, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepoMock) SetUnread(ctx context.Context, chatID, userID string, n int64) error {
	args := m.Called(ctx, chatID, userID, n)
	return args.Error(0)
}

func (m *ChatRepoMock) UpdateChannel(ctx context.Context, chatID, name string, isPrivate bool) (*models.Chat, error) {
	args := m.Called(ctx, chatID, name, isPrivate)
	var c *models.Chat
	if v := args.Get(0); v != nil {
		c = v.(*models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepoMock) AddMember(ctx context.Context, chatID, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepoMock) RemoveMember(ctx context.Context, chatID, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepoMock) SetAdmin(ctx context.Context, chatID, userID string, admin bool) error {
	args := m.Called(ctx, chatID, userID, admin)
	return args.Error(0)
}

type MessageRepoMock struct {
	mock.Mock
}

func (m *MessageRepoMock) Insert(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepoMock) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	var out *models.Message
	if v := args.Get(0); v != nil {
		out = v.(*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) List(ctx context.Context, chatID, userID string, limit int64, before time.Time) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, userID, limit, before)
	var out []*models.Message
	if v := args.Get(0); v != nil {
		out = v.([]*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) MarkDelivered(ctx context.Context, messageID, userID string) (*models.Message, error) {
	args := m.Called(ctx, messageID, userID)
	var out *models.Message
	if v := args.Get(0); v != nil {
		out = v.(*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) MarkDeliveredForChats(ctx context.Context, chatIDs []string, userID string) (map[string][]string, error) {
	args := m.Called(ctx, chatIDs, userID)
	var out map[string][]string
	if v := args.Get(0); v != nil {
		out = v.(map[string][]string)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) MarkRead(ctx context.Context, messageID, userID string, at time.Time) (*models.Message, error) {
	args := m.Called(ctx, messageID, userID, at)
	var out *models.Message
	if v := args.Get(0); v != nil {
		out = v.(*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) MarkAllRead(ctx context.Context, chatID, userID string, at time.Time) ([]string, error) {
	args := m.Called(ctx, chatID, userID, at)
	var out []string
	if v := args.Get(0); v != nil {
		out = v.([]string)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) Edit(ctx context.Context, messageID, prevContent, newContent string, at time.Time) (*models.Message, error) {
	args := m.Called(ctx, messageID, prevContent, newContent, at)
	var out *models.Message
	if v := args.Get(0); v != nil {
		out = v.(*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) DeleteForUser(ctx context.Context, messageID, userID string) (*models.Message, error) {
	args := m.Called(ctx, messageID, userID)
	var out *models.Message
	if v := args.Get(0); v != nil {
		out = v.(*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) DeleteForEveryone(ctx context.Context, messageID string) (*models.Message, error) {
	args := m.Called(ctx, messageID)
	var out *models.Message
	if v := args.Get(0); v != nil {
		out = v.(*models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepoMock) DeleteByChat(ctx context.Context, chatID string) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepoMock) CountUnread(ctx context.Context, chatID, userID string) (int64, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Get(0).(int64), args.Error(1)
}
