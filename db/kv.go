// ABOUTME: Key-value record store used with the Charm and local Badger clients
// ABOUTME: Persists the whole state as one JSON document under a single key
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/outreach/models"
)

// StateKey holds both collections so one Set is one atomic commit.
const StateKey = "outreach/state"

// KV is the slice of the charm client the store needs. Get returns a nil
// value and nil error for a missing key.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Close() error
}

// KVStore serialises the snapshot into a key-value backend.
type KVStore struct {
	kv KV
}

func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Load(ctx context.Context) (models.Snapshot, error) {
	var raw []byte
	err := runWithContext(ctx, func() error {
		var err error
		raw, err = s.kv.Get([]byte(StateKey))
		return err
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read state: %w", err)
	}
	if len(raw) == 0 {
		return models.NewSnapshot(), nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to decode state: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

func (s *KVStore) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := runWithContext(ctx, func() error {
		return s.kv.Set([]byte(StateKey), data)
	}); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.kv.Close()
}
