// Package redis provides a core.SessionStore backed by Redis. Sessions are
// stored as JSON under "<prefix>:session:<id>" and expire after the configured
// TTL of inactivity.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/session"
)

const maxRecordRetries = 5

// Options configure the Redis session store.
type Options struct {
	// Prefix namespaces every key. Defaults to "layoutgen".
	Prefix string
	// TTL is refreshed on every write. Zero keeps sessions forever.
	TTL time.Duration
}

// Store implements core.SessionStore on top of Redis.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore creates a new store connected with the given redis options.
func NewStore(redisOpts *redis.Options, optFns ...func(o *Options)) *Store {
	return NewStoreFromClient(redis.NewClient(redisOpts), optFns...)
}

// NewStoreFromClient creates a store from an existing client.
func NewStoreFromClient(rdb *redis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: "layoutgen"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{rdb: rdb, prefix: opts.Prefix, ttl: opts.TTL}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Key returns the redis key for a session id.
func (s *Store) Key(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

// Create writes the session unless the id already exists.
func (s *Store) Create(ctx context.Context, sess *core.Session) error {
	data, err := json.Marshal(sess.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.Key(sess.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to write session to Redis: %w", err)
	}
	if !ok {
		return session.ErrAlreadyExists
	}
	return nil
}

// Get reads a session or returns session.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*core.Session, error) {
	data, err := s.rdb.Get(ctx, s.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session from Redis: %w", err)
	}
	return decode(data)
}

// Record updates the generate id and results of an existing session. The
// read-modify-write runs inside WATCH/MULTI and is retried on conflicts.
func (s *Store) Record(ctx context.Context, id, generateID string, results []core.SlotResult) error {
	key := s.Key(id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return session.ErrNotFound
		}
		if err != nil {
			return err
		}
		sess, err := decode(data)
		if err != nil {
			return err
		}
		sess.Record(generateID, results)
		updated, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxRecordRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("failed to record session: %w", err)
		}
		return err
	}
	return fmt.Errorf("failed to record session %s: too many concurrent writers", id)
}

// Delete removes the session or returns session.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, s.Key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

func decode(data []byte) (*core.Session, error) {
	var sess core.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Metadata == nil {
		sess.Metadata = map[string]string{}
	}
	if sess.Results == nil {
		sess.Results = []core.SlotResult{}
	}
	return &sess, nil
}
