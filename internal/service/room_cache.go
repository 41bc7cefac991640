package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Sagararora90/ynme/internal/model"
	"github.com/redis/go-redis/v9"
)

// RoomCache keeps the latest room state in Redis so dashboards can read live
// state without hitting Postgres. Nil-safe: a nil cache is a no-op.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a room cache. Rooms expire after 24h of inactivity.
func NewRoomCache(client *redis.Client) *RoomCache {
	return &RoomCache{client: client, ttl: 24 * time.Hour}
}

func (c *RoomCache) key(playlistID string) string {
	return "room:" + playlistID
}

// Set stores the room state as a JSON blob keyed by playlist id.
func (c *RoomCache) Set(ctx context.Context, state *model.RoomState) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(state.PlaylistID), data, c.ttl).Err()
}

// Get returns the cached room state, or nil if absent.
func (c *RoomCache) Get(ctx context.Context, playlistID string) (*model.RoomState, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, c.key(playlistID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.RoomState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete removes the cached room state.
func (c *RoomCache) Delete(ctx context.Context, playlistID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(playlistID)).Err()
}
