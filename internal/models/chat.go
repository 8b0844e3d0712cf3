package models

import (
	"sort"
	"time"
)

const (
	ChatTypeDirect  = "direct"
	ChatTypeChannel = "channel"
)

// MessagePreview is the embedded last-message summary on a chat document.
type MessagePreview struct {
	ID        string    `bson:"id" json:"id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	FileURL   string    `bson:"file_url,omitempty" json:"file_url,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Chat is either a direct conversation (exactly two participants) or a
// channel (members + admins). Unread is always a map keyed by user id;
// the array/null shapes of the old schema are gone.
type Chat struct {
	ID            string           `bson:"_id,omitempty" json:"id"`
	Type          string           `bson:"type" json:"type"`
	Participants  []string         `bson:"participants" json:"participants"`
	Name          string           `bson:"name,omitempty" json:"name,omitempty"`
	IsPrivate     bool             `bson:"is_private,omitempty" json:"is_private,omitempty"`
	Admins        []string         `bson:"admins,omitempty" json:"admins,omitempty"`
	CreatedBy     string           `bson:"created_by,omitempty" json:"created_by,omitempty"`
	LastMessage   *MessagePreview  `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageAt *time.Time       `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	Unread        map[string]int64 `bson:"unread" json:"unread"`
	CreatedAt     time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `bson:"updated_at" json:"updated_at"`
}

// DirectKey returns the two participant ids in canonical (sorted) order.
// Direct chats are stored with sorted participants so the unique index
// prevents duplicate conversations for the same pair.
func DirectKey(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}

// HasParticipant reports whether the user belongs to the chat, whichever
// type it is.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsAdmin is the single authorization check for mutating channel
// operations. Handlers must not re-implement this scan.
func (c *Chat) IsAdmin(userID string) bool {
	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}
	return false
}

// IsOnlyAdmin reports whether the user is the sole remaining admin.
func (c *Chat) IsOnlyAdmin(userID string) bool {
	return len(c.Admins) == 1 && c.Admins[0] == userID
}

// UnreadFor returns the persisted unread counter for a user.
func (c *Chat) UnreadFor(userID string) int64 {
	if c.Unread == nil {
		return 0
	}
	return c.Unread[userID]
}
