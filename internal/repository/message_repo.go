package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lizzietrust/chat-backend/internal/models"
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(s *Store) *MessageRepository {
	return &MessageRepository{coll: s.Messages}
}

func (r *MessageRepository) Insert(ctx context.Context, m *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	m.Status = models.StatusSent
	m.CreatedAt = time.Now().UTC()
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	if m.ReadReceipts == nil {
		m.ReadReceipts = []models.ReadReceipt{}
	}
	if m.DeliveredTo == nil {
		m.DeliveredTo = []string{}
	}
	if m.DeletedFor == nil {
		m.DeletedFor = []string{}
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var m models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns up to limit messages of a chat in chronological order,
// hiding messages the caller deleted for themselves.
func (r *MessageRepository) List(ctx context.Context, chatID, userID string, limit int64, before time.Time) ([]*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"chat_id":     chatID,
		"is_deleted":  false,
		"deleted_for": bson.M{"$ne": userID},
	}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	// newest-first query, chronological response
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// MarkDelivered moves a single message forward to delivered. The status
// filter only matches statuses below delivered, so a read message is
// never pulled backward; delivered_to still collects the recipient.
func (r *MessageRepository) MarkDelivered(ctx context.Context, messageID, userID string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID, "status": bson.M{"$in": models.StatusesBelow(models.StatusDelivered)}},
		bson.M{"$set": bson.M{"status": models.StatusDelivered}},
	)
	if err != nil {
		return nil, err
	}
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID, "sender_id": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"delivered_to": userID}},
	)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, messageID)
}

// MarkDeliveredForChats is the bulk sweep run when a recipient's socket
// connects: every sent message addressed to them flips to delivered.
// It returns the affected message ids grouped by chat so status updates
// can be fanned out with their message ids.
func (r *MessageRepository) MarkDeliveredForChats(ctx context.Context, chatIDs []string, userID string) (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if len(chatIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"chat_id":   bson.M{"$in": chatIDs},
		"sender_id": bson.M{"$ne": userID},
		"status":    bson.M{"$in": models.StatusesBelow(models.StatusDelivered)},
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1, "chat_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID     string `bson:"_id"`
		ChatID string `bson:"chat_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	_, err = r.coll.UpdateMany(ctx, filter, bson.M{
		"$set":      bson.M{"status": models.StatusDelivered},
		"$addToSet": bson.M{"delivered_to": userID},
	})
	if err != nil {
		return nil, err
	}

	affected := map[string][]string{}
	for _, d := range docs {
		affected[d.ChatID] = append(affected[d.ChatID], d.ID)
	}
	return affected, nil
}

// MarkRead adds the user to the read_by set and appends exactly one read
// receipt. The read_by guard makes the whole call idempotent: a repeat
// for the same user matches nothing, and the receipt log never grows a
// duplicate entry for a user.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID, userID string, at time.Time) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID, "sender_id": bson.M{"$ne": userID}, "read_by": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"read_by": userID},
			"$push":     bson.M{"read_receipts": models.ReadReceipt{UserID: userID, ReadAt: at}},
			"$set":      bson.M{"status": models.StatusRead},
		},
	)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, messageID)
}

// MarkAllRead applies MarkRead semantics to every message in the chat the
// user has not sent and not yet read, returning the affected message ids.
func (r *MessageRepository) MarkAllRead(ctx context.Context, chatID, userID string, at time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"chat_id":   chatID,
		"sender_id": bson.M{"$ne": userID},
		"read_by":   bson.M{"$ne": userID},
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	_, err = r.coll.UpdateMany(ctx, filter, bson.M{
		"$addToSet": bson.M{"read_by": userID},
		"$push":     bson.M{"read_receipts": models.ReadReceipt{UserID: userID, ReadAt: at}},
		"$set":      bson.M{"status": models.StatusRead},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// Edit replaces the content within the edit window, archiving the
// previous content in edit_history.
func (r *MessageRepository) Edit(ctx context.Context, messageID, prevContent, newContent string, at time.Time) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": messageID},
		bson.M{
			"$set":  bson.M{"content": newContent, "edited_at": at},
			"$push": bson.M{"edit_history": models.EditEntry{Content: prevContent, EditedAt: at}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var m models.Message
	if err := res.Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// DeleteForUser masks the message for one user only.
func (r *MessageRepository) DeleteForUser(ctx context.Context, messageID, userID string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": messageID},
		bson.M{"$addToSet": bson.M{"deleted_for": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var m models.Message
	if err := res.Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// DeleteForEveryone removes the message entirely.
func (r *MessageRepository) DeleteForEveryone(ctx context.Context, messageID string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var m models.Message
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": messageID}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// DeleteByChat clears a chat's history.
func (r *MessageRepository) DeleteByChat(ctx context.Context, chatID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountUnread derives the true unread count for a user from the messages
// collection. This is the authoritative number the reconciler writes back
// over the cached per-chat counters.
func (r *MessageRepository) CountUnread(ctx context.Context, chatID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{
		"chat_id":     chatID,
		"sender_id":   bson.M{"$ne": userID},
		"read_by":     bson.M{"$ne": userID},
		"is_deleted":  false,
		"deleted_for": bson.M{"$ne": userID},
	})
}
