package models

import "time"

// Message status values. Transitions only move forward:
// sent -> delivered -> read.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

var statusRank = map[string]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// CanTransition reports whether a status change is a forward move.
// Equal or backward transitions are rejected so an out-of-order
// delivered event can never undo a read.
func CanTransition(from, to string) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr > fr
}

// StatusesBelow returns the statuses a message may currently hold if it is
// allowed to transition to the given status. Used as the repository update
// filter that enforces monotonicity.
func StatusesBelow(to string) []string {
	tr, ok := statusRank[to]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(statusRank))
	for s, r := range statusRank {
		if r < tr {
			out = append(out, s)
		}
	}
	return out
}

// ReadReceipt records when a user read a message. One entry per user:
// the repository only appends a receipt while adding the user to ReadBy.
type ReadReceipt struct {
	UserID string    `bson:"user_id" json:"user_id"`
	ReadAt time.Time `bson:"read_at" json:"read_at"`
}

type EditEntry struct {
	Content  string    `bson:"content" json:"content"`
	EditedAt time.Time `bson:"edited_at" json:"edited_at"`
}

// Message belongs to exactly one chat via ChatID. The legacy dual
// chat/chatId naming is collapsed into this single canonical field.
type Message struct {
	ID           string        `bson:"_id,omitempty" json:"id"`
	ChatID       string        `bson:"chat_id" json:"chat_id"`
	SenderID     string        `bson:"sender_id" json:"sender_id"`
	Content      string        `bson:"content,omitempty" json:"content,omitempty"`
	FileURL      string        `bson:"file_url,omitempty" json:"file_url,omitempty"`
	Status       string        `bson:"status" json:"status"`
	ReadBy       []string      `bson:"read_by" json:"read_by"`
	ReadReceipts []ReadReceipt `bson:"read_receipts" json:"read_receipts"`
	DeliveredTo  []string      `bson:"delivered_to" json:"delivered_to"`
	EditHistory  []EditEntry   `bson:"edit_history,omitempty" json:"edit_history,omitempty"`
	EditedAt     *time.Time    `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsDeleted    bool          `bson:"is_deleted" json:"is_deleted"`
	DeletedFor   []string      `bson:"deleted_for" json:"deleted_for"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}

// EditWindow is how long after creation the sender may still edit.
const EditWindow = 15 * time.Minute

// Editable reports whether the message can still be edited at now.
func (m *Message) Editable(now time.Time) bool {
	return !m.IsDeleted && now.Sub(m.CreatedAt) <= EditWindow
}

// ReadByUser reports whether the user is already in the ReadBy set.
func (m *Message) ReadByUser(userID string) bool {
	for _, u := range m.ReadBy {
		if u == userID {
			return true
		}
	}
	return false
}
