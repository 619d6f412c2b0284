package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// mutateRetries bounds optimistic-lock retries when a watched key changes
// between read and write.
const mutateRetries = 4

// RedisConfig configures the Redis-backed state stores. The connection
// itself comes from pkg/redis; this only shapes the keyspace.
type RedisConfig struct {
	// KeyPrefix namespaces all keys (multi-tenant Redis instances).
	KeyPrefix string
	// TTL bounds how long idle state lives; defaults to 48h, twice the
	// daily frequency window.
	TTL time.Duration
}

type redisStore[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func newRedisStore[T any](client *goredis.Client, cfg RedisConfig, kind string) *redisStore[T] {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "alert-engine"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &redisStore[T]{client: client, prefix: prefix + ":" + kind + ":", ttl: ttl}
}

func (s *redisStore[T]) key(k string) string { return s.prefix + k }

func (s *redisStore[T]) mutate(ctx context.Context, key string, fn func(*T) error) error {
	rkey := s.key(key)
	txn := func(tx *goredis.Tx) error {
		var entry T
		data, err := tx.Get(ctx, rkey).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &entry); err != nil {
				return fmt.Errorf("decode state %s: %w", rkey, err)
			}
		case errors.Is(err, goredis.Nil):
			// first touch, start from the zero state
		default:
			return err
		}

		if err := fn(&entry); err != nil {
			return err
		}

		buf, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode state %s: %w", rkey, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, rkey, buf, s.ttl)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < mutateRetries; i++ {
		err = s.client.Watch(ctx, txn, rkey)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *redisStore[T]) get(ctx context.Context, key string) (T, bool, error) {
	var entry T
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false, fmt.Errorf("decode state %s: %w", s.key(key), err)
	}
	return entry, true, nil
}

func (s *redisStore[T]) clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

type redisRuleStore struct {
	*redisStore[RuleState]
}

// NewRedisRuleStore returns a RuleStateStore persisted in Redis for
// cross-process durability. Mutations use optimistic locking (WATCH/MULTI).
func NewRedisRuleStore(client *goredis.Client, cfg RedisConfig) RuleStateStore {
	return &redisRuleStore{newRedisStore[RuleState](client, cfg, "rule")}
}

func (s *redisRuleStore) Mutate(ctx context.Context, ruleID string, fn func(*RuleState) error) error {
	return s.mutate(ctx, ruleID, fn)
}

func (s *redisRuleStore) Get(ctx context.Context, ruleID string) (RuleState, bool, error) {
	return s.get(ctx, ruleID)
}

func (s *redisRuleStore) Clear(ctx context.Context) error { return s.clear(ctx) }

type redisFrequencyStore struct {
	*redisStore[FrequencyCounterState]
}

// NewRedisFrequencyStore returns a FrequencyStore persisted in Redis.
func NewRedisFrequencyStore(client *goredis.Client, cfg RedisConfig) FrequencyStore {
	return &redisFrequencyStore{newRedisStore[FrequencyCounterState](client, cfg, "freq")}
}

func (s *redisFrequencyStore) Mutate(ctx context.Context, key string, fn func(*FrequencyCounterState) error) error {
	return s.mutate(ctx, key, fn)
}

func (s *redisFrequencyStore) Get(ctx context.Context, key string) (FrequencyCounterState, bool, error) {
	return s.get(ctx, key)
}

func (s *redisFrequencyStore) Clear(ctx context.Context) error { return s.clear(ctx) }
