package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lizzietrust/chat-backend/internal/models"
)

const (
	recentDepth = 100
	recentTTL   = 24 * time.Hour
)

// Recent keeps the newest messages of each chat in a capped Redis list
// for cheap preview reads. It is write-through and best-effort; Mongo
// stays the source of truth.
type Recent struct {
	client *redis.Client
	prefix string
}

func NewRecent(client *redis.Client, prefix string) *Recent {
	return &Recent{client: client, prefix: prefix}
}

func (r *Recent) key(chatID string) string {
	return fmt.Sprintf("%s:chat:%s:recent", r.prefix, chatID)
}

func (r *Recent) Push(ctx context.Context, m *models.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	key := r.key(m.ChatID)
	if err := r.client.LPush(ctx, key, b).Err(); err != nil {
		return err
	}
	_ = r.client.LTrim(ctx, key, 0, recentDepth-1).Err()
	return r.client.Expire(ctx, key, recentTTL).Err()
}

// List returns up to n cached messages, newest first.
func (r *Recent) List(ctx context.Context, chatID string, n int64) ([]*models.Message, error) {
	raw, err := r.client.LRange(ctx, r.key(chatID), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Message, 0, len(raw))
	for _, item := range raw {
		var m models.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

// Invalidate drops the cached list after an edit, delete or clear so the
// next preview read repopulates from Mongo.
func (r *Recent) Invalidate(ctx context.Context, chatID string) error {
	return r.client.Del(ctx, r.key(chatID)).Err()
}
