package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail maps the unique email index violation.
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	opTimeout    = 3 * time.Second
	queryTimeout = 5 * time.Second
)

// Store bundles the Mongo client and the three collections the server
// works with.
type Store struct {
	Client   *mongo.Client
	DB       *mongo.Database
	Users    *mongo.Collection
	Chats    *mongo.Collection
	Messages *mongo.Collection
}

// Connect dials MongoDB, pings it and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(database)
	s := &Store{
		Client:   client,
		DB:       db,
		Users:    db.Collection("users"),
		Chats:    db.Collection("chats"),
		Messages: db.Collection("messages"),
	}
	s.ensureIndexes(ctx)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) {
	_, _ = s.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	_, _ = s.Chats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participants", Value: 1}},
			Options: options.Index().SetName("participants_idx"),
		},
		{
			// participants are stored sorted for direct chats, so this
			// index makes the create-or-get race safe: the second insert
			// for the same pair fails with a duplicate key error.
			Keys: bson.D{{Key: "type", Value: 1}, {Key: "participants", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("direct_pair_unique").
				SetPartialFilterExpression(bson.M{"type": "direct"}),
		},
	})
	_, _ = s.Messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("chat_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_idx"),
		},
	})
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
