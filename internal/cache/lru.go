package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/domain/schedule"
)

type entry struct {
	slots []schedule.Slot
	tags  []string
}

// LRUStore is an in-process Store over an expiring LRU plus a tag
// index. The LRU is internally synchronized; mu guards only the tag
// index and is always taken after any LRU call, never around one.
type LRUStore struct {
	entries *expirable.LRU[string, entry]

	mu   sync.Mutex
	tags map[string]map[string]struct{}

	log *zap.Logger
}

func NewLRUStore(size int, ttl time.Duration, log *zap.Logger) *LRUStore {
	s := &LRUStore{
		tags: make(map[string]map[string]struct{}),
		log:  log,
	}
	// Eviction (TTL expiry, capacity pressure or explicit removal) must
	// drop the key from the tag index too, or the index leaks keys.
	s.entries = expirable.NewLRU[string, entry](size, s.onEvict, ttl)
	return s
}

func (s *LRUStore) onEvict(key string, ent entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range ent.tags {
		if keys, ok := s.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}

func (s *LRUStore) Get(_ context.Context, key string) ([]schedule.Slot, bool, error) {
	ent, ok := s.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return ent.slots, true, nil
}

func (s *LRUStore) Set(_ context.Context, key string, slots []schedule.Slot, tags []string) error {
	s.entries.Add(key, entry{slots: slots, tags: tags})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (s *LRUStore) Invalidate(_ context.Context, key string) error {
	s.entries.Remove(key)
	return nil
}

func (s *LRUStore) InvalidateByTag(_ context.Context, tag string) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.tags[tag]))
	for key := range s.tags[tag] {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.entries.Remove(key)
	}

	if len(keys) > 0 {
		s.log.Debug("cache entries invalidated by tag",
			zap.String("tag", tag),
			zap.Int("count", len(keys)),
		)
	}
	return nil
}

func (s *LRUStore) Len() int {
	return s.entries.Len()
}
