// ABOUTME: Redis-backed record store
// ABOUTME: One JSON value per collection, both written in a MULTI/EXEC block
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/harperreed/outreach/models"
)

// RedisStore keeps each collection under <prefix>:<set name>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "outreach"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// OpenRedisStore connects to addr and verifies the connection.
func OpenRedisStore(ctx context.Context, addr string, database int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: database})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) key(set models.Set) string {
	return s.prefix + ":" + string(set)
}

func (s *RedisStore) Load(ctx context.Context) (models.Snapshot, error) {
	vals, err := s.client.MGet(ctx, s.key(models.SetTracked), s.key(models.SetPending)).Result()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read state: %w", err)
	}

	snap := models.NewSnapshot()
	targets := []*map[string]models.ContactRecord{&snap.Tracked, &snap.Pending}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok || str == "" {
			continue
		}
		if err := json.Unmarshal([]byte(str), targets[i]); err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to decode state: %w", err)
		}
	}
	snap.Normalize()
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap models.Snapshot) error {
	tracked, err := json.Marshal(snap.Tracked)
	if err != nil {
		return fmt.Errorf("failed to encode connections: %w", err)
	}
	pending, err := json.Marshal(snap.Pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending connections: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(models.SetTracked), tracked, 0)
		pipe.Set(ctx, s.key(models.SetPending), pending, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
