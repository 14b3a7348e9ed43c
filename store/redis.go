/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Seednode/senryu/senryu"
	"github.com/redis/go-redis/v9"
)

// Config holds configuration for the Redis backends
type Config struct {
	RedisClient *redis.Client

	// TTL applied to room records and code reservations; zero means DefaultTTL
	TTL time.Duration
}

// Redis implements Repository on top of a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed room repository
func NewRedis(cfg *Config) (*Redis, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.RedisClient == nil {
		return nil, ErrNilClient
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{
		client: cfg.RedisClient,
		ttl:    ttl,
	}, nil
}

func (r *Redis) SaveRoom(ctx context.Context, input *SaveRoomInput) error {
	if input == nil || input.Room == nil {
		return errors.New("input and room cannot be nil")
	}

	data, err := json.Marshal(input.Room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, roomKey(input.Room.ID), data, r.ttl)

	// Keep the join code alive as long as the room.
	if input.Room.Code != "" {
		pipe.Expire(ctx, codeKey(input.Room.Code), r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

func (r *Redis) GetRoom(ctx context.Context, input *GetRoomInput) (*senryu.Room, error) {
	if input == nil || input.RoomID == "" {
		return nil, errors.New("input and room ID cannot be empty")
	}

	data, err := r.client.Get(ctx, roomKey(input.RoomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room senryu.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (r *Redis) ReserveCode(ctx context.Context, input *ReserveCodeInput) error {
	if input == nil || input.Code == "" || input.RoomID == "" {
		return errors.New("input, code and room ID cannot be empty")
	}

	ok, err := r.client.SetNX(ctx, codeKey(input.Code), input.RoomID, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve code: %w", err)
	}
	if !ok {
		return ErrCodeTaken
	}

	return nil
}

func (r *Redis) GetRoomIDByCode(ctx context.Context, input *GetRoomIDByCodeInput) (string, error) {
	if input == nil || input.Code == "" {
		return "", errors.New("input and code cannot be empty")
	}

	id, err := r.client.Get(ctx, codeKey(input.Code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to get room by code: %w", err)
	}

	return id, nil
}
