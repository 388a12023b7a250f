// Package presence tracks which users are active in a document room, backed
// by Redis so presence survives hub restarts and multiple hub processes.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a member stays "alive" without a heartbeat.
const DefaultTTL = 60 * time.Second

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis by URL and verifies the connection.
func NewCache(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewCacheWithClient(client, ttl), nil
}

func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func roomKey(docID string) string {
	return "presence:room:" + docID
}

func memberKey(docID, userID string) string {
	return "presence:member:" + docID + ":" + userID
}

// Join adds a user to the room set and starts their heartbeat.
func (c *Cache) Join(ctx context.Context, docID, userID string) error {
	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, roomKey(docID), userID)
	pipe.Set(ctx, memberKey(docID, userID), "1", c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Heartbeat refreshes a member's liveness window.
func (c *Cache) Heartbeat(ctx context.Context, docID, userID string) error {
	return c.client.Set(ctx, memberKey(docID, userID), "1", c.ttl).Err()
}

// Leave removes a user from the room.
func (c *Cache) Leave(ctx context.Context, docID, userID string) error {
	pipe := c.client.Pipeline()
	pipe.SRem(ctx, roomKey(docID), userID)
	pipe.Del(ctx, memberKey(docID, userID))
	_, err := pipe.Exec(ctx)
	return err
}

// Members returns the users whose heartbeat is still alive, pruning expired
// entries from the room set as it goes.
func (c *Cache) Members(ctx context.Context, docID string) ([]string, error) {
	ids, err := c.client.SMembers(ctx, roomKey(docID)).Result()
	if err != nil {
		return nil, err
	}
	alive := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := c.client.Exists(ctx, memberKey(docID, id)).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			alive = append(alive, id)
			continue
		}
		c.client.SRem(ctx, roomKey(docID), id)
	}
	return alive, nil
}

// Clear drops all presence state for a room, used when a document is deleted.
func (c *Cache) Clear(ctx context.Context, docID string) error {
	ids, err := c.client.SMembers(ctx, roomKey(docID)).Result()
	if err != nil {
		return err
	}
	pipe := c.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, memberKey(docID, id))
	}
	pipe.Del(ctx, roomKey(docID))
	_, err = pipe.Exec(ctx)
	return err
}

func (c *Cache) Close() error {
	return c.client.Close()
}
