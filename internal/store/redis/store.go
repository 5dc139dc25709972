package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

// Client is the part of the go-redis client the store relies on.
// *redis.Client satisfies it.
type Client interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Store persists endpoint settings as plain Redis strings, one key per slot.
// Keys never expire.
type Store struct {
	client Client
}

// NewStore creates a settings store on an already connected client.
func NewStore(client Client) *Store {
	return &Store{
		client: client,
	}
}

// Name implements domain.SettingsStore.
func (s *Store) Name() string { return "redis" }

// Load fetches every setting key in a single MGET.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	keys := AllSettingKeys()

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load settings: %w", err)
	}

	return snapshotFromMGet(keys, vals), nil
}

// Save writes both slots of id atomically.
func (s *Store) Save(ctx context.Context, id domain.ServiceIdentity, pair domain.EndpointPair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, slot := range domain.Slots() {
			pipe.Set(ctx, SettingKey(id, slot), pair.Get(slot), 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", id.Slug(), err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// snapshotFromMGet maps MGET replies back to settings keys.
// Missing keys come back as nil and are treated as absent.
func snapshotFromMGet(keys []string, vals []interface{}) domain.Snapshot {
	values := make(map[string]string, len(keys))
	for i, key := range keys {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		str, ok := vals[i].(string)
		if !ok {
			continue
		}
		settingsKey, err := ExtractSettingsKey(key)
		if err != nil {
			continue
		}
		values[settingsKey] = str
	}
	return domain.SnapshotFromValues(values)
}
