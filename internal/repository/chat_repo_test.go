package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lizzietrust/chat-backend/internal/models"
)

func TestApplyMessageUpdateDirect(t *testing.T) {
	now := time.Now().UTC()
	chat := &models.Chat{ID: "c1", Type: models.ChatTypeDirect, Participants: []string{"u1", "u2"}}
	preview := &models.MessagePreview{ID: "m1", SenderID: "u1", Content: "hi", CreatedAt: now}

	update := applyMessageUpdate(chat, preview)

	set := update["$set"].(bson.M)
	assert.Equal(t, preview, set["last_message"])
	assert.Equal(t, now, set["last_message_at"])
	assert.Equal(t, int64(0), set["unread.u1"], "sender counter resets")
	assert.NotContains(t, set, "unread.u2")

	inc := update["$inc"].(bson.M)
	require.Len(t, inc, 1)
	assert.Equal(t, int64(1), inc["unread.u2"], "recipient gets exactly +1")
	assert.NotContains(t, inc, "unread.u1")
}

func TestApplyMessageUpdateChannel(t *testing.T) {
	chat := &models.Chat{ID: "ch1", Type: models.ChatTypeChannel, Participants: []string{"u1", "u2", "u3"}}
	preview := &models.MessagePreview{ID: "m1", SenderID: "u2", CreatedAt: time.Now().UTC()}

	update := applyMessageUpdate(chat, preview)

	set := update["$set"].(bson.M)
	assert.Equal(t, int64(0), set["unread.u2"])

	inc := update["$inc"].(bson.M)
	require.Len(t, inc, 2)
	assert.Equal(t, int64(1), inc["unread.u1"])
	assert.Equal(t, int64(1), inc["unread.u3"])
}

func TestApplyMessageUpdateNoRecipients(t *testing.T) {
	chat := &models.Chat{ID: "c1", Participants: []string{"u1"}}
	preview := &models.MessagePreview{ID: "m1", SenderID: "u1", CreatedAt: time.Now().UTC()}

	update := applyMessageUpdate(chat, preview)
	assert.NotContains(t, update, "$inc")
}
