package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())

	cfg.Host = "cache"
	cfg.Port = 6380
	assert.Equal(t, "cache:6380", cfg.Addr())
}

func TestSubjectKey(t *testing.T) {
	assert.Equal(t, "college:subject:Math", SubjectKey("Math"))
}

// Argument validation happens before any round-trip, so no server is needed.
func TestCache_RejectsInvalidArguments(t *testing.T) {
	c := newCache(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", "v", time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, time.Minute), ErrCacheNilValue)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", -time.Second), ErrCacheInvalidTTL)
	assert.ErrorIs(t, c.Set(ctx, "k", make(chan int), time.Minute), ErrCacheSerialization)

	var dest string
	assert.ErrorIs(t, c.Get(ctx, "", &dest), ErrCacheKeyEmpty)
}

func TestSubjectCache_SetNilIsNoop(t *testing.T) {
	c := newCache(DefaultConfig())
	defer c.Close()

	assert.NoError(t, NewSubjectCache(c).Set(context.Background(), nil, time.Minute))
}
