package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"partselect/parser/internal/domain"
	"partselect/parser/internal/observability"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// keyValue is the part of the Redis client the cache needs.
type keyValue interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisRecordCache struct {
	redisClient keyValue
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisRecordCache(redisClient redis.Cmdable, ttl time.Duration) RecordCache {
	return newRedisRecordCache(redisClient, ttl)
}

func newRedisRecordCache(redisClient keyValue, ttl time.Duration) *redisRecordCache {
	return &redisRecordCache{
		redisClient: redisClient,
		keyPrefix:   "partselect:record:",
		ttl:         ttl,
	}
}

func (c *redisRecordCache) key(partNumber string) string {
	return c.keyPrefix + partNumber
}

func (c *redisRecordCache) Get(ctx context.Context, partNumber string) (domain.PartRecord, bool, error) {
	val, err := c.redisClient.Get(ctx, c.key(partNumber)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observability.CacheLookups.WithLabelValues(resultMiss).Inc()
			return domain.PartRecord{}, false, nil
		}
		observability.CacheLookups.WithLabelValues(resultError).Inc()
		return domain.PartRecord{}, false, fmt.Errorf("failed to get cached record for %s: %w", partNumber, err)
	}

	var record domain.PartRecord
	if err := json.Unmarshal(val, &record); err != nil {
		observability.CacheLookups.WithLabelValues(resultError).Inc()
		return domain.PartRecord{}, false, fmt.Errorf("failed to decode cached record for %s: %w", partNumber, err)
	}

	observability.CacheLookups.WithLabelValues(resultHit).Inc()
	log.Debugf("Cache hit for %s", partNumber)
	return normalize(record), true, nil
}

func (c *redisRecordCache) Set(ctx context.Context, partNumber string, record domain.PartRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", partNumber, err)
	}
	if err := c.redisClient.Set(ctx, c.key(partNumber), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache record for %s: %w", partNumber, err)
	}
	return nil
}

// normalize restores empty lists that an older writer may have stored as null.
func normalize(r domain.PartRecord) domain.PartRecord {
	empty := domain.EmptyPartRecord(r.URL)
	if r.ReplacesParts == nil {
		r.ReplacesParts = empty.ReplacesParts
	}
	if r.Symptoms == nil {
		r.Symptoms = empty.Symptoms
	}
	if r.YouMayNeed == nil {
		r.YouMayNeed = empty.YouMayNeed
	}
	if r.PartVideos == nil {
		r.PartVideos = empty.PartVideos
	}
	if r.ModelCompatibility == nil {
		r.ModelCompatibility = empty.ModelCompatibility
	}
	return r
}
