package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lizzietrust/chat-backend/internal/models"
)

type ChatRepository struct {
	coll *mongo.Collection
}

func NewChatRepository(s *Store) *ChatRepository {
	return &ChatRepository{coll: s.Chats}
}

// GetOrCreateDirect returns the existing direct chat for the pair or
// inserts a new one. Participants are stored sorted; the partial unique
// index turns a concurrent double-insert into a duplicate key error which
// falls back to the find.
func (r *ChatRepository) GetOrCreateDirect(ctx context.Context, userA, userB string) (*models.Chat, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pair := models.DirectKey(userA, userB)
	filter := bson.M{"type": models.ChatTypeDirect, "participants": pair}

	var existing models.Chat
	err := r.coll.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		return &existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	now := time.Now().UTC()
	chat := &models.Chat{
		ID:           primitive.NewObjectID().Hex(),
		Type:         models.ChatTypeDirect,
		Participants: pair,
		Unread:       map[string]int64{pair[0]: 0, pair[1]: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, chat); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if ferr := r.coll.FindOne(ctx, filter).Decode(&existing); ferr == nil {
				return &existing, false, nil
			}
		}
		return nil, false, err
	}
	return chat, true, nil
}

func (r *ChatRepository) CreateChannel(ctx context.Context, c *models.Chat) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID().Hex()
	c.Type = models.ChatTypeChannel
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Unread == nil {
		c.Unread = map[string]int64{}
		for _, m := range c.Participants {
			c.Unread[m] = 0
		}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *ChatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c models.Chat
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListForUser returns the user's chats, most recently active first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "last_message_at", Value: -1},
		{Key: "updated_at", Value: -1},
	})
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Chat{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsForUser returns just the chat ids the user belongs to; used by the
// delivered sweep on socket connect.
func (r *ChatRepository) IDsForUser(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"participants": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// AllIDs streams every chat id, for the unread reconciler.
func (r *ChatRepository) AllIDs(ctx context.Context) ([]string, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// ApplyMessage folds a freshly sent message into the chat document in a
// single update: last-message summary, $inc for every recipient's unread
// counter and a reset of the sender's own.
func (r *ChatRepository) ApplyMessage(ctx context.Context, chat *models.Chat, preview *models.MessagePreview) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chat.ID}, applyMessageUpdate(chat, preview))
	return err
}

// applyMessageUpdate builds the single update folding a sent message into
// the chat document: last-message summary, exactly +1 for every recipient's
// counter and a reset of the sender's own.
func applyMessageUpdate(chat *models.Chat, preview *models.MessagePreview) bson.M {
	set := bson.M{
		"last_message":    preview,
		"last_message_at": preview.CreatedAt,
		"updated_at":      preview.CreatedAt,
		unreadKey(preview.SenderID): int64(0),
	}
	inc := bson.M{}
	for _, p := range chat.Participants {
		if p != preview.SenderID {
			inc[unreadKey(p)] = int64(1)
		}
	}
	update := bson.M{"$set": set}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	return update
}

// ResetUnread zeroes one user's counter.
func (r *ChatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID},
		bson.M{"$set": bson.M{unreadKey(userID): int64(0)}})
	return err
}

// SetUnread overwrites one user's counter with a derived value; used by
// the reconciler only.
func (r *ChatRepository) SetUnread(ctx context.Context, chatID, userID string, n int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID},
		bson.M{"$set": bson.M{unreadKey(userID): n}})
	return err
}

func (r *ChatRepository) UpdateChannel(ctx context.Context, chatID string, name string, isPrivate bool) (*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": chatID, "type": models.ChatTypeChannel},
		bson.M{"$set": bson.M{"name": name, "is_private": isPrivate, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var c models.Chat
	if err := res.Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepository) AddMember(ctx context.Context, chatID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{
		"$addToSet": bson.M{"participants": userID},
		"$set":      bson.M{unreadKey(userID): int64(0), "updated_at": time.Now().UTC()},
	})
	return err
}

func (r *ChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{
		"$pull":  bson.M{"participants": userID, "admins": userID},
		"$unset": bson.M{unreadKey(userID): ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (r *ChatRepository) SetAdmin(ctx context.Context, chatID, userID string, admin bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var update bson.M
	if admin {
		update = bson.M{"$addToSet": bson.M{"admins": userID}}
	} else {
		update = bson.M{"$pull": bson.M{"admins": userID}}
	}
	update["$set"] = bson.M{"updated_at": time.Now().UTC()}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	return err
}

func unreadKey(userID string) string {
	return fmt.Sprintf("unread.%s", userID)
}
