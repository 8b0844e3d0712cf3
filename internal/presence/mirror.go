package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror copies the registry state into Redis so presence survives a
// process restart and is visible to anything else reading the keys.
// Keys:
//
//	<prefix>:presence:conn:<userID>   set of connection ids
//	<prefix>:presence:status:<userID> json {status, last_seen}
type Mirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type status struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

func NewMirror(client *redis.Client, prefix string, ttl time.Duration) *Mirror {
	return &Mirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *Mirror) connKey(userID string) string {
	return fmt.Sprintf("%s:presence:conn:%s", m.prefix, userID)
}

func (m *Mirror) statusKey(userID string) string {
	return fmt.Sprintf("%s:presence:status:%s", m.prefix, userID)
}

func (m *Mirror) AddConnection(ctx context.Context, userID, connID string) error {
	if err := m.client.SAdd(ctx, m.connKey(userID), connID).Err(); err != nil {
		return err
	}
	_ = m.client.Expire(ctx, m.connKey(userID), m.ttl).Err()
	b, _ := json.Marshal(status{Status: "online", LastSeen: time.Now().Unix()})
	return m.client.Set(ctx, m.statusKey(userID), b, m.ttl).Err()
}

func (m *Mirror) RemoveConnection(ctx context.Context, userID, connID string) error {
	if err := m.client.SRem(ctx, m.connKey(userID), connID).Err(); err != nil {
		return err
	}
	left, _ := m.client.SCard(ctx, m.connKey(userID)).Result()
	if left == 0 {
		b, _ := json.Marshal(status{Status: "offline", LastSeen: time.Now().Unix()})
		return m.client.Set(ctx, m.statusKey(userID), b, 0).Err()
	}
	return nil
}

// Status returns the mirrored presence blob for a user, or nil when
// nothing is recorded.
func (m *Mirror) Status(ctx context.Context, userID string) (map[string]any, error) {
	b, err := m.client.Get(ctx, m.statusKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
