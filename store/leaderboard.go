/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Seednode/senryu/senryu"
	"github.com/redis/go-redis/v9"
)

// RedisLeaderboard ranks published entries in a sorted set, with the
// entries themselves kept in a hash keyed by entry id. Entries do not expire.
type RedisLeaderboard struct {
	client *redis.Client
}

func NewRedisLeaderboard(cfg *Config) (*RedisLeaderboard, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.RedisClient == nil {
		return nil, ErrNilClient
	}

	return &RedisLeaderboard{client: cfg.RedisClient}, nil
}

func validEntry(input *PublishInput) error {
	if input == nil || input.Entry == nil || input.Entry.ID == "" {
		return errors.New("input and entry ID cannot be empty")
	}
	return nil
}

func (l *RedisLeaderboard) Publish(ctx context.Context, input *PublishInput) error {
	if err := validEntry(input); err != nil {
		return err
	}

	data, err := json.Marshal(input.Entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking entry: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.HSet(ctx, leaderboardEntriesKey, input.Entry.ID, data)
	pipe.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(input.Entry.Score),
		Member: input.Entry.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish ranking entry: %w", err)
	}

	return nil
}

func (l *RedisLeaderboard) List(ctx context.Context, input *ListInput) ([]*senryu.RankingEntry, error) {
	ids, err := l.client.ZRevRange(ctx, leaderboardKey, 0, int64(input.limit()-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	if len(ids) == 0 {
		return []*senryu.RankingEntry{}, nil
	}

	values, err := l.client.HMGet(ctx, leaderboardEntriesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard entries: %w", err)
	}

	entries := make([]*senryu.RankingEntry, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Ranked but missing its entry; skip rather than fail the listing.
			continue
		}

		var entry senryu.RankingEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ranking entry %s: %w", ids[i], err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

// MemoryLeaderboard is the in-process Leaderboard used with the memory store.
type MemoryLeaderboard struct {
	mu      sync.RWMutex
	entries []*senryu.RankingEntry
}

func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{}
}

func (l *MemoryLeaderboard) Publish(ctx context.Context, input *PublishInput) error {
	if err := validEntry(input); err != nil {
		return err
	}

	entry := *input.Entry

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID == entry.ID {
			l.entries[i] = &entry
			return nil
		}
	}
	l.entries = append(l.entries, &entry)

	return nil
}

func (l *MemoryLeaderboard) List(ctx context.Context, input *ListInput) ([]*senryu.RankingEntry, error) {
	l.mu.RLock()
	entries := make([]*senryu.RankingEntry, 0, len(l.entries))
	for _, e := range l.entries {
		entry := *e
		entries = append(entries, &entry)
	}
	l.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if limit := input.limit(); len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
