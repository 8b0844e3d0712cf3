package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lizzietrust/chat-backend/internal/models"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, event, key string, data any) {
	m.Called(ctx, event, key, data)
}

type RecentCacheMock struct {
	mock.Mock
}

func (m *RecentCacheMock) Push(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *RecentCacheMock) List(ctx context.Context, chatID string, n int64) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, n)
	var out []*models.Message
	if v := args.Get(0); v != nil {
		out = v.([]*models.Message)
	}
	return out, args.Error(1)
}

func (m *RecentCacheMock) Invalidate(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type PresenceMirrorMock struct {
	mock.Mock
}

func (m *PresenceMirrorMock) AddConnection(ctx context.Context, userID, connID string) error {
	args := m.Called(ctx, userID, connID)
	return args.Error(0)
}

func (m *PresenceMirrorMock) RemoveConnection(ctx context.Context, userID, connID string) error {
	args := m.Called(ctx, userID, connID)
	return args.Error(0)
}

// BroadcastCall records a single fan-out for assertions.
type BroadcastCall struct {
	Kind    string // "users", "chat" or "all"
	UserIDs []string
	ChatID  string
	Event   string
	Payload any
}

// BroadcasterRecorder is a plain recording fake. Broadcast calls are
// fire-and-forget, so recording beats expectation wiring in most tests.
type BroadcasterRecorder struct {
	mu    sync.Mutex
	Calls []BroadcastCall
}

func (b *BroadcasterRecorder) ToUsers(userIDs []string, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, BroadcastCall{Kind: "users", UserIDs: userIDs, Event: event, Payload: payload})
}

func (b *BroadcasterRecorder) ToChat(chatID string, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, BroadcastCall{Kind: "chat", ChatID: chatID, Event: event, Payload: payload})
}

func (b *BroadcasterRecorder) ToAll(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, BroadcastCall{Kind: "all", Event: event, Payload: payload})
}

// Events returns the event names in fan-out order.
func (b *BroadcasterRecorder) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.Calls))
	for _, c := range b.Calls {
		out = append(out, c.Event)
	}
	return out
}
