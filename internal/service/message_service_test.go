package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/events"
	"github.com/lizzietrust/chat-backend/internal/mocks"
	"github.com/lizzietrust/chat-backend/internal/models"
)

func newMessageService(chats *mocks.ChatRepoMock, messages *mocks.MessageRepoMock, cache *mocks.RecentCacheMock, pub *mocks.PublisherMock, bc *mocks.BroadcasterRecorder) *MessageService {
	return NewMessageService(chats, messages, cache, pub, bc, zap.NewNop().Sugar())
}

func directChat(id string, participants ...string) *models.Chat {
	return &models.Chat{
		ID:           id,
		Type:         models.ChatTypeDirect,
		Participants: participants,
		Unread:       map[string]int64{},
	}
}

func TestSendRequiresMembership(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), bc)

	chats.On("GetByID", mock.Anything, "c1").Return(directChat("c1", "u1", "u2"), nil)

	_, err := svc.Send(context.Background(), SendInput{ChatID: "c1", Content: "hi", SenderID: "intruder"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, bc.Calls)
}

func TestSendRejectsEmptyBody(t *testing.T) {
	svc := newMessageService(new(mocks.ChatRepoMock), new(mocks.MessageRepoMock), new(mocks.RecentCacheMock), new(mocks.PublisherMock), new(mocks.BroadcasterRecorder))

	_, err := svc.Send(context.Background(), SendInput{ChatID: "c1", SenderID: "u1"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestSendFansOutAndUpdatesChat(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	cache := new(mocks.RecentCacheMock)
	pub := new(mocks.PublisherMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, cache, pub, bc)

	chat := directChat("c1", "u1", "u2")
	chats.On("GetByID", mock.Anything, "c1").Return(chat, nil)
	messages.On("Insert", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			m := args.Get(1).(*models.Message)
			m.ID = "m1"
			m.Status = models.StatusSent
			m.CreatedAt = time.Now().UTC()
		}).
		Return(nil)
	chats.On("ApplyMessage", mock.Anything, chat, mock.AnythingOfType("*models.MessagePreview")).Return(nil)
	cache.On("Push", mock.Anything, mock.AnythingOfType("*models.Message")).Return(nil)
	pub.On("Publish", mock.Anything, events.MessageNew, "m1", mock.Anything).Return()

	m, err := svc.Send(context.Background(), SendInput{ChatID: "c1", Content: "hi", SenderID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, models.StatusSent, m.Status)

	chats.AssertExpectations(t)
	pub.AssertExpectations(t)

	require.Len(t, bc.Calls, 2)
	assert.Equal(t, EvNewMessage, bc.Calls[0].Event)
	assert.Equal(t, []string{"u1", "u2"}, bc.Calls[0].UserIDs)
	assert.Equal(t, EvChatUpdated, bc.Calls[1].Event)
}

func TestSendSurvivesCounterUpdateFailure(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	cache := new(mocks.RecentCacheMock)
	pub := new(mocks.PublisherMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, cache, pub, bc)

	chat := directChat("c1", "u1", "u2")
	chats.On("GetByID", mock.Anything, "c1").Return(chat, nil)
	messages.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Message).ID = "m1" }).
		Return(nil)
	chats.On("ApplyMessage", mock.Anything, chat, mock.Anything).Return(assert.AnError)
	cache.On("Push", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, events.MessageNew, "m1", mock.Anything).Return()

	// the message is already persisted; the reconciler repairs the
	// counters, so the send still succeeds
	m, err := svc.Send(context.Background(), SendInput{ChatID: "c1", Content: "hi", SenderID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Len(t, bc.Calls, 2)
}

func TestMarkDeliveredSenderNoOp(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), bc)

	msg := &models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusSent}
	messages.On("GetByID", mock.Anything, "m1").Return(msg, nil)

	got, err := svc.MarkDelivered(context.Background(), "m1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, got.Status)
	messages.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, bc.Calls)
}

func TestMarkDeliveredEmitsStatus(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), bc)

	chats.On("GetByID", mock.Anything, "c1").Return(directChat("c1", "u1", "u2"), nil)
	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusSent}, nil)
	messages.On("MarkDelivered", mock.Anything, "m1", "u2").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusDelivered, DeliveredTo: []string{"u2"}}, nil)

	got, err := svc.MarkDelivered(context.Background(), "m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)

	require.Len(t, bc.Calls, 1)
	assert.Equal(t, "chat", bc.Calls[0].Kind)
	assert.Equal(t, EvMessageStatusUpdate, bc.Calls[0].Event)
}

func TestMarkReadFirstTimeRederivesUnread(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	pub := new(mocks.PublisherMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), pub, bc)

	chats.On("GetByID", mock.Anything, "c1").Return(directChat("c1", "u1", "u2"), nil)
	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusDelivered}, nil)
	messages.On("MarkRead", mock.Anything, "m1", "u2", mock.AnythingOfType("time.Time")).
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusRead, ReadBy: []string{"u2"}}, nil)
	messages.On("CountUnread", mock.Anything, "c1", "u2").Return(int64(4), nil)
	chats.On("SetUnread", mock.Anything, "c1", "u2", int64(4)).Return(nil)
	pub.On("Publish", mock.Anything, events.MessageRead, "m1", mock.Anything).Return()

	got, err := svc.MarkRead(context.Background(), "m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, got.Status)

	chats.AssertExpectations(t)
	pub.AssertExpectations(t)
	require.Len(t, bc.Calls, 1)
	assert.Equal(t, EvMessageStatusUpdate, bc.Calls[0].Event)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	pub := new(mocks.PublisherMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), pub, bc)

	already := &models.Message{
		ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusRead,
		ReadBy:       []string{"u2"},
		ReadReceipts: []models.ReadReceipt{{UserID: "u2", ReadAt: time.Now().UTC()}},
	}
	chats.On("GetByID", mock.Anything, "c1").Return(directChat("c1", "u1", "u2"), nil)
	messages.On("GetByID", mock.Anything, "m1").Return(already, nil)
	messages.On("MarkRead", mock.Anything, "m1", "u2", mock.AnythingOfType("time.Time")).Return(already, nil)

	got, err := svc.MarkRead(context.Background(), "m1", "u2")
	require.NoError(t, err)
	assert.Len(t, got.ReadReceipts, 1)

	// no counter rewrite, no lifecycle event the second time around
	chats.AssertNotCalled(t, "SetUnread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkReadSenderNoOp(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), new(mocks.BroadcasterRecorder))

	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusSent}, nil)

	got, err := svc.MarkRead(context.Background(), "m1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, got.Status)
	messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditOnlySenderInsideWindow(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), new(mocks.BroadcasterRecorder))

	fresh := &models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "old", CreatedAt: time.Now().UTC()}
	messages.On("GetByID", mock.Anything, "m1").Return(fresh, nil)

	_, err := svc.Edit(context.Background(), "m1", "u2", "new")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestEditWindowExpired(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), new(mocks.BroadcasterRecorder))

	stale := &models.Message{
		ID: "m1", ChatID: "c1", SenderID: "u1", Content: "old",
		CreatedAt: time.Now().UTC().Add(-models.EditWindow - time.Minute),
	}
	messages.On("GetByID", mock.Anything, "m1").Return(stale, nil)

	_, err := svc.Edit(context.Background(), "m1", "u1", "new")
	assert.ErrorIs(t, err, apperr.ErrEditWindow)
	messages.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditArchivesPrevious(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	cache := new(mocks.RecentCacheMock)
	pub := new(mocks.PublisherMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, cache, pub, bc)

	fresh := &models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "old", CreatedAt: time.Now().UTC()}
	messages.On("GetByID", mock.Anything, "m1").Return(fresh, nil)
	messages.On("Edit", mock.Anything, "m1", "old", "new", mock.AnythingOfType("time.Time")).
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "new",
			EditHistory: []models.EditEntry{{Content: "old"}}}, nil)
	cache.On("Invalidate", mock.Anything, "c1").Return(nil)
	pub.On("Publish", mock.Anything, events.MessageEdited, "m1", mock.Anything).Return()

	got, err := svc.Edit(context.Background(), "m1", "u1", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
	require.Len(t, got.EditHistory, 1)
	assert.Equal(t, "old", got.EditHistory[0].Content)

	require.Len(t, bc.Calls, 1)
	assert.Equal(t, EvMessageEdited, bc.Calls[0].Event)
}

func TestDeleteForEveryoneSenderOnly(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), new(mocks.BroadcasterRecorder))

	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1"}, nil)

	_, err := svc.Delete(context.Background(), "m1", "u2", true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "DeleteForEveryone", mock.Anything, mock.Anything)
}

func TestDeleteForSelfMasksOnly(t *testing.T) {
	messages := new(mocks.MessageRepoMock)
	cache := new(mocks.RecentCacheMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(new(mocks.ChatRepoMock), messages, cache, new(mocks.PublisherMock), bc)

	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1"}, nil)
	messages.On("DeleteForUser", mock.Anything, "m1", "u2").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", DeletedFor: []string{"u2"}}, nil)
	cache.On("Invalidate", mock.Anything, "c1").Return(nil)

	got, err := svc.Delete(context.Background(), "m1", "u2", false)
	require.NoError(t, err)
	assert.Contains(t, got.DeletedFor, "u2")
	assert.Empty(t, bc.Calls)
}

func TestDeliveredSweepBroadcastsPerChat(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), bc)

	chats.On("IDsForUser", mock.Anything, "u2").Return([]string{"c1", "c2", "c3"}, nil)
	messages.On("MarkDeliveredForChats", mock.Anything, []string{"c1", "c2", "c3"}, "u2").
		Return(map[string][]string{"c1": {"m1", "m2"}, "c3": {"m9"}}, nil)

	require.NoError(t, svc.DeliveredSweep(context.Background(), "u2"))

	require.Len(t, bc.Calls, 2)
	byChat := map[string][]string{}
	for _, c := range bc.Calls {
		assert.Equal(t, EvMessageStatusUpdate, c.Event)
		p := c.Payload.(map[string]any)
		byChat[c.ChatID] = p["message_ids"].([]string)
	}
	assert.Equal(t, []string{"m1", "m2"}, byChat["c1"])
	assert.Equal(t, []string{"m9"}, byChat["c3"])
}

func TestMarkDeliveredRequiresMembership(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), new(mocks.PublisherMock), bc)

	chats.On("GetByID", mock.Anything, "c1").Return(directChat("c1", "u1", "u2"), nil)
	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusSent}, nil)

	_, err := svc.MarkDelivered(context.Background(), "m1", "stranger")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, bc.Calls)
}

func TestMarkReadRequiresMembership(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	messages := new(mocks.MessageRepoMock)
	pub := new(mocks.PublisherMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newMessageService(chats, messages, new(mocks.RecentCacheMock), pub, bc)

	chats.On("GetByID", mock.Anything, "c1").Return(directChat("c1", "u1", "u2"), nil)
	messages.On("GetByID", mock.Anything, "m1").
		Return(&models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Status: models.StatusSent}, nil)

	_, err := svc.MarkRead(context.Background(), "m1", "stranger")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// no read stamp, no counter key for a user outside the chat
	messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	chats.AssertNotCalled(t, "SetUnread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, bc.Calls)
}
