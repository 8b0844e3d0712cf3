package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lizzietrust/chat-backend/internal/models"
)

// Repositories are consumed through interfaces so handlers and services
// can be tested against testify mocks.

type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, excludeID string) ([]*models.User, error)
	Search(ctx context.Context, excludeID, query string) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, fields bson.M) (*models.User, error)
	SetOnline(ctx context.Context, id string, online bool) error
	MarkOfflineExcept(ctx context.Context, onlineIDs []string) (int64, error)
}

type ChatRepo interface {
	GetOrCreateDirect(ctx context.Context, userA, userB string) (*models.Chat, bool, error)
	CreateChannel(ctx context.Context, c *models.Chat) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Chat, error)
	IDsForUser(ctx context.Context, userID string) ([]string, error)
	AllIDs(ctx context.Context) ([]string, error)
	ApplyMessage(ctx context.Context, chat *models.Chat, preview *models.MessagePreview) error
	ResetUnread(ctx context.Context, chatID, userID string) error
	SetUnread(ctx context.Context, chatID, userID string, n int64) error
	UpdateChannel(ctx context.Context, chatID, name string, isPrivate bool) (*models.Chat, error)
	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
	SetAdmin(ctx context.Context, chatID, userID string, admin bool) error
}

type MessageRepo interface {
	Insert(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	List(ctx context.Context, chatID, userID string, limit int64, before time.Time) ([]*models.Message, error)
	MarkDelivered(ctx context.Context, messageID, userID string) (*models.Message, error)
	MarkDeliveredForChats(ctx context.Context, chatIDs []string, userID string) (map[string][]string, error)
	MarkRead(ctx context.Context, messageID, userID string, at time.Time) (*models.Message, error)
	MarkAllRead(ctx context.Context, chatID, userID string, at time.Time) ([]string, error)
	Edit(ctx context.Context, messageID, prevContent, newContent string, at time.Time) (*models.Message, error)
	DeleteForUser(ctx context.Context, messageID, userID string) (*models.Message, error)
	DeleteForEveryone(ctx context.Context, messageID string) (*models.Message, error)
	DeleteByChat(ctx context.Context, chatID string) (int64, error)
	CountUnread(ctx context.Context, chatID, userID string) (int64, error)
}

// Publisher is the Kafka lifecycle-event sink. Best-effort by contract.
type Publisher interface {
	Publish(ctx context.Context, event, key string, data any)
}

// RecentCache is the Redis write-through recent-message list.
type RecentCache interface {
	Push(ctx context.Context, m *models.Message) error
	List(ctx context.Context, chatID string, n int64) ([]*models.Message, error)
	Invalidate(ctx context.Context, chatID string) error
}

// Broadcaster fans events out over the socket layer. ToUsers targets the
// users' live connections wherever they are; ToChat targets the joined
// chat room only.
type Broadcaster interface {
	ToUsers(userIDs []string, event string, payload any)
	ToChat(chatID string, event string, payload any)
	ToAll(event string, payload any)
}

// Server -> client socket event names.
const (
	EvNewMessage          = "newMessage"
	EvMessageStatusUpdate = "messageStatusUpdate"
	EvChatUpdated         = "chatUpdated"
	EvMessageEdited       = "messageEdited"
	EvMessageDeleted      = "messageDeleted"
	EvMessagesCleared     = "messagesCleared"
	EvTyping              = "typing"
	EvUserOnline          = "userOnline"
	EvUserOffline         = "userOffline"
	EvOnlineUsers         = "onlineUsers"
)
