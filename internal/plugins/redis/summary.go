package redis

import (
	"chathub/internal/core/domain"
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSummaryCache keeps each room's last-message preview so list views
// don't hit the message store. Refreshed on every append; deleting the
// message demotes the key.
type RedisSummaryCache struct {
	rdb *redis.Client
}

func NewRedisSummaryCache(rdb *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{rdb: rdb}
}

func summaryKey(roomID string) string {
	return "room:" + roomID + ":last"
}

func (c *RedisSummaryCache) SetLastMessage(
	ctx context.Context,
	roomID string,
	s domain.RoomSummary,
	ttl time.Duration,
) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, summaryKey(roomID), data, ttl).Err()
}

func (c *RedisSummaryCache) DropLastMessage(ctx context.Context, roomID string) error {
	return c.rdb.Del(ctx, summaryKey(roomID)).Err()
}
