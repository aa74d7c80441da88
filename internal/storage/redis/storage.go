package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/storage"
)

// maxUpdateRetries bounds optimistic retries when a child key changes mid-update
const maxUpdateRetries = 3

// Storage is a Redis-backed implementation of the account store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.AccountStore = (*Storage)(nil)

// Family operations

func (s *Storage) SaveFamily(ctx context.Context, family *model.Family) error {
	data, err := json.Marshal(family)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, familyKey(family.ID), data, 0)
	pipe.Set(ctx, parentIndexKey(family.ParentUserID), family.ID, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetFamily(ctx context.Context, id string) (*model.Family, error) {
	data, err := s.client.Get(ctx, familyKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrFamilyNotFound
		}
		return nil, err
	}

	var family model.Family
	if err := json.Unmarshal(data, &family); err != nil {
		return nil, err
	}
	return &family, nil
}

func (s *Storage) GetFamilyByParent(ctx context.Context, parentUserID string) (*model.Family, error) {
	familyID, err := s.client.Get(ctx, parentIndexKey(parentUserID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrFamilyNotFound
		}
		return nil, err
	}

	return s.GetFamily(ctx, familyID)
}

// Child operations

func (s *Storage) SaveChild(ctx context.Context, child *model.Child) error {
	data, err := json.Marshal(child)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, childKey(child.ID), data, 0).Err()
}

func (s *Storage) GetChild(ctx context.Context, id string) (*model.Child, error) {
	return getChild(ctx, s.client, id)
}

// UpdateChildTimeLeft rewrites the child's remaining time under WATCH so a
// concurrent dashboard edit of other fields is never overwritten.
func (s *Storage) UpdateChildTimeLeft(ctx context.Context, id string, seconds int) error {
	key := childKey(id)

	update := func(tx *redis.Tx) error {
		child, err := getChild(ctx, tx, id)
		if err != nil {
			return err
		}
		child.TimeLeftDay = seconds

		data, err := json.Marshal(child)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, update, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getChild(ctx context.Context, c getter, id string) (*model.Child, error) {
	data, err := c.Get(ctx, childKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrChildNotFound
		}
		return nil, err
	}

	var child model.Child
	if err := json.Unmarshal(data, &child); err != nil {
		return nil, err
	}
	return &child, nil
}
