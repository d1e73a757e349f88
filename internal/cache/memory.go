package cache

import (
	"context"
	"sync"
	"time"

	"partselect/parser/internal/domain"
	"partselect/parser/internal/observability"
)

type memoryEntry struct {
	record  domain.PartRecord
	expires time.Time
}

// memoryRecordCache is the in-process cache used when Redis is disabled.
type memoryRecordCache struct {
	mutex     sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryRecordCache(ttl time.Duration) RecordCache {
	return &memoryRecordCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *memoryRecordCache) Get(_ context.Context, partNumber string) (domain.PartRecord, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[partNumber]
	if ok && !c.now().Before(entry.expires) {
		delete(c.entries, partNumber)
		ok = false
	}
	if !ok {
		observability.CacheLookups.WithLabelValues(resultMiss).Inc()
		return domain.PartRecord{}, false, nil
	}
	observability.CacheLookups.WithLabelValues(resultHit).Inc()
	return entry.record.Clone(), true, nil
}

func (c *memoryRecordCache) Set(_ context.Context, partNumber string, record domain.PartRecord) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweep(now)
	}
	c.entries[partNumber] = memoryEntry{record: record.Clone(), expires: now.Add(c.ttl)}
	return nil
}

// sweep drops expired entries. Set runs it at most once per TTL, so keys that
// are never read again do not accumulate.
func (c *memoryRecordCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
	c.lastSweep = now
}
