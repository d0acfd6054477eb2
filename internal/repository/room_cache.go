package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"game_lounge/internal/game"

	"github.com/redis/go-redis/v9"
)

// RoomCache держит последний снимок состояния комнаты в Redis, чтобы
// переживать рестарты без полного реплея журнала.
type RoomCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRoomCache(rdb *redis.Client, ttl time.Duration) *RoomCache {
	return &RoomCache{rdb: rdb, ttl: ttl}
}

func (c *RoomCache) key(roomID string) string {
	return "room:state:" + roomID
}

func (c *RoomCache) SaveState(ctx context.Context, roomID string, state *game.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(roomID), data, c.ttl).Err()
}

func (c *RoomCache) LoadState(ctx context.Context, roomID string) (*game.State, error) {
	data, err := c.rdb.Get(ctx, c.key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var state game.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *RoomCache) DeleteState(ctx context.Context, roomID string) error {
	return c.rdb.Del(ctx, c.key(roomID)).Err()
}
