package state

import (
	"context"
	"hash/fnv"
	"sync"
)

// shardCount is a power of two so the modulo reduces to a mask. 32 shards
// keep lock contention negligible at the target concurrency without a
// global lock.
const shardCount = 32

type shard[T any] struct {
	mu      sync.Mutex
	entries map[string]*T
}

// striped is a sharded map keyed by string with per-shard locking.
type striped[T any] struct {
	shards [shardCount]shard[T]
}

func newStriped[T any]() *striped[T] {
	s := &striped[T]{}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*T)
	}
	return s
}

func (s *striped[T]) shardFor(key string) *shard[T] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.shards[h.Sum32()&(shardCount-1)]
}

func (s *striped[T]) mutate(key string, fn func(*T) error) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	entry, ok := sh.entries[key]
	if !ok {
		entry = new(T)
	}
	if err := fn(entry); err != nil {
		return err
	}
	sh.entries[key] = entry
	return nil
}

func (s *striped[T]) get(key string) (T, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if entry, ok := sh.entries[key]; ok {
		return *entry, true
	}
	var zero T
	return zero, false
}

func (s *striped[T]) clear() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.entries = make(map[string]*T)
		sh.mu.Unlock()
	}
}

type memoryRuleStore struct {
	data *striped[RuleState]
}

// NewMemoryRuleStore returns the default in-process RuleStateStore.
func NewMemoryRuleStore() RuleStateStore {
	return &memoryRuleStore{data: newStriped[RuleState]()}
}

func (m *memoryRuleStore) Mutate(_ context.Context, ruleID string, fn func(*RuleState) error) error {
	return m.data.mutate(ruleID, fn)
}

func (m *memoryRuleStore) Get(_ context.Context, ruleID string) (RuleState, bool, error) {
	st, ok := m.data.get(ruleID)
	return st, ok, nil
}

func (m *memoryRuleStore) Clear(_ context.Context) error {
	m.data.clear()
	return nil
}

type memoryFrequencyStore struct {
	data *striped[FrequencyCounterState]
}

// NewMemoryFrequencyStore returns the default in-process FrequencyStore.
func NewMemoryFrequencyStore() FrequencyStore {
	return &memoryFrequencyStore{data: newStriped[FrequencyCounterState]()}
}

func (m *memoryFrequencyStore) Mutate(_ context.Context, key string, fn func(*FrequencyCounterState) error) error {
	return m.data.mutate(key, fn)
}

func (m *memoryFrequencyStore) Get(_ context.Context, key string) (FrequencyCounterState, bool, error) {
	st, ok := m.data.get(key)
	return st, ok, nil
}

func (m *memoryFrequencyStore) Clear(_ context.Context) error {
	m.data.clear()
	return nil
}
