package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/mocks"
	"github.com/lizzietrust/chat-backend/internal/models"
)

func newChannelService(chats *mocks.ChatRepoMock, bc *mocks.BroadcasterRecorder) *ChannelService {
	return NewChannelService(chats, bc, zap.NewNop().Sugar())
}

func testChannel(admins ...string) *models.Chat {
	return &models.Chat{
		ID:           "ch1",
		Type:         models.ChatTypeChannel,
		Name:         "general",
		Participants: []string{"u1", "u2", "u3"},
		Admins:       admins,
		CreatedBy:    admins[0],
	}
}

func TestCreateChannelDeduplicatesMembers(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newChannelService(chats, bc)

	chats.On("CreateChannel", mock.Anything, mock.AnythingOfType("*models.Chat")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Chat).ID = "ch1" }).
		Return(nil)

	c, err := svc.Create(context.Background(), "u1", CreateChannelInput{
		Name:    "general",
		Members: []string{"u2", "u2", "u1", "", "u3"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, c.Participants)
	assert.Equal(t, []string{"u1"}, c.Admins)
	assert.Equal(t, "u1", c.CreatedBy)
	require.Len(t, bc.Calls, 1)
	assert.Equal(t, EvChatUpdated, bc.Calls[0].Event)
}

func TestCreateChannelRequiresName(t *testing.T) {
	svc := newChannelService(new(mocks.ChatRepoMock), new(mocks.BroadcasterRecorder))

	_, err := svc.Create(context.Background(), "u1", CreateChannelInput{})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestUpdateRequiresAdmin(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil)

	_, err := svc.Update(context.Background(), "ch1", "u2", "renamed", false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	chats.AssertNotCalled(t, "UpdateChannel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateRejectsDirectChat(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "c1").
		Return(&models.Chat{ID: "c1", Type: models.ChatTypeDirect, Participants: []string{"u1", "u2"}}, nil)

	_, err := svc.Update(context.Background(), "c1", "u1", "renamed", false)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestAddMemberIdempotent(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil)

	c, err := svc.AddMember(context.Background(), "ch1", "u1", "u2")
	require.NoError(t, err)
	assert.Contains(t, c.Participants, "u2")
	chats.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveMemberSelfLeave(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newChannelService(chats, bc)

	left := &models.Chat{ID: "ch1", Type: models.ChatTypeChannel, Participants: []string{"u1", "u2"}, Admins: []string{"u1"}}
	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil).Once()
	chats.On("RemoveMember", mock.Anything, "ch1", "u3").Return(nil)
	chats.On("GetByID", mock.Anything, "ch1").Return(left, nil).Once()

	c, err := svc.RemoveMember(context.Background(), "ch1", "u3", "u3")
	require.NoError(t, err)
	assert.NotContains(t, c.Participants, "u3")
	require.Len(t, bc.Calls, 1)
	// the removed user still hears about the change
	assert.Contains(t, bc.Calls[0].UserIDs, "u3")
}

func TestRemoveMemberNonAdminForbidden(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil)

	_, err := svc.RemoveMember(context.Background(), "ch1", "u2", "u3")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	chats.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveLastAdminRejected(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil)

	// even a self-leave cannot take out the only admin
	_, err := svc.RemoveMember(context.Background(), "ch1", "u1", "u1")
	assert.ErrorIs(t, err, apperr.ErrLastAdmin)
	chats.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveAdminWithOthersRemaining(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	after := &models.Chat{ID: "ch1", Type: models.ChatTypeChannel, Participants: []string{"u2", "u3"}, Admins: []string{"u2"}}
	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1", "u2"), nil).Once()
	chats.On("RemoveMember", mock.Anything, "ch1", "u1").Return(nil)
	chats.On("GetByID", mock.Anything, "ch1").Return(after, nil).Once()

	c, err := svc.RemoveMember(context.Background(), "ch1", "u2", "u1")
	require.NoError(t, err)
	assert.NotContains(t, c.Participants, "u1")
}

func TestDemoteLastAdminRejected(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil)

	_, err := svc.SetAdmin(context.Background(), "ch1", "u1", "u1", false)
	assert.ErrorIs(t, err, apperr.ErrLastAdmin)
	chats.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPromoteMember(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	bc := new(mocks.BroadcasterRecorder)
	svc := newChannelService(chats, bc)

	after := testChannel("u1", "u2")
	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil).Once()
	chats.On("SetAdmin", mock.Anything, "ch1", "u2", true).Return(nil)
	chats.On("GetByID", mock.Anything, "ch1").Return(after, nil).Once()

	c, err := svc.SetAdmin(context.Background(), "ch1", "u1", "u2", true)
	require.NoError(t, err)
	assert.True(t, c.IsAdmin("u2"))
	require.Len(t, bc.Calls, 1)
}

func TestPromoteNonMemberRejected(t *testing.T) {
	chats := new(mocks.ChatRepoMock)
	svc := newChannelService(chats, new(mocks.BroadcasterRecorder))

	chats.On("GetByID", mock.Anything, "ch1").Return(testChannel("u1"), nil)

	_, err := svc.SetAdmin(context.Background(), "ch1", "u1", "stranger", true)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}
