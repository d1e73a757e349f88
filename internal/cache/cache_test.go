package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"partselect/parser/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func sampleRecord() domain.PartRecord {
	price := 44.95
	record := domain.EmptyPartRecord("https://www.partselect.com/PS11752778-1.htm")
	record.Name = "Refrigerator Door Shelf Bin"
	record.Price = &price
	record.Symptoms = []string{"Leaking"}
	return record
}

func TestRedisRecordCache_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	c := newRedisRecordCache(kv, 30*time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "PS11752778")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "PS11752778", sampleRecord()))
	assert.Equal(t, 30*time.Minute, kv.ttl["partselect:record:PS11752778"])

	got, ok, err := c.Get(ctx, "PS11752778")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleRecord(), got)
}

func TestRedisRecordCache_NullListsBecomeEmpty(t *testing.T) {
	kv := newFakeKV()
	kv.data["partselect:record:PS1"] = `{"url":"u","price":null,"symptoms":null}`
	c := newRedisRecordCache(kv, time.Minute)

	got, ok, err := c.Get(context.Background(), "PS1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, got.Symptoms)
	assert.NotNil(t, got.ModelCompatibility)
	assert.Nil(t, got.Price)
}

func TestRedisRecordCache_Errors(t *testing.T) {
	kv := newFakeKV()
	kv.data["partselect:record:BAD"] = `{not json`
	c := newRedisRecordCache(kv, time.Minute)

	_, ok, err := c.Get(context.Background(), "BAD")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "failed to decode cached record")

	kv.err = errors.New("connection refused")
	_, _, err = c.Get(context.Background(), "PS1")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, c.Set(context.Background(), "PS1", sampleRecord()))
}

func TestMemoryRecordCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryRecordCache(30 * time.Minute).(*memoryRecordCache)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	record := sampleRecord()
	require.NoError(t, c.Set(ctx, "PS11752778", record))
	record.Symptoms[0] = "changed after caching"

	got, ok, err := c.Get(ctx, "PS11752778")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Leaking", got.Symptoms[0])

	got.Symptoms[0] = "changed after reading"
	again, _, _ := c.Get(ctx, "PS11752778")
	assert.Equal(t, "Leaking", again.Symptoms[0])

	now = now.Add(31 * time.Minute)
	_, ok, err = c.Get(ctx, "PS11752778")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRecordCache_SetSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryRecordCache(30 * time.Minute).(*memoryRecordCache)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "PS1", sampleRecord()))
	require.NoError(t, c.Set(ctx, "PS2", sampleRecord()))
	assert.Len(t, c.entries, 2)

	now = now.Add(31 * time.Minute)
	require.NoError(t, c.Set(ctx, "PS3", sampleRecord()))

	assert.Len(t, c.entries, 1)
	assert.Contains(t, c.entries, "PS3")
}
