package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCmdable implements only the commands VerifyCache issues.
type fakeCmdable struct {
	redis.Cmdable
	store  map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{store: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	switch v, ok := f.store[key]; {
	case f.getErr != nil:
		cmd.SetErr(f.getErr)
	case !ok:
		cmd.SetErr(redis.Nil)
	default:
		cmd.SetVal(v)
	}
	return cmd
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.store[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	cmd.SetVal("OK")
	return cmd
}

func TestVerifyCache(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeCmdable()
	cache := NewVerifyCache(rdb, time.Minute)

	ok, err := cache.IsVerified(ctx, "tx1", "fp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.MarkVerified(ctx, "tx1", "fp"))
	assert.Equal(t, time.Minute, rdb.ttls["anchor:verified:tx1"])

	ok, err = cache.IsVerified(ctx, "tx1", "fp")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.IsVerified(ctx, "tx1", "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCache_Error(t *testing.T) {
	rdb := newFakeCmdable()
	rdb.getErr = errors.New("connection refused")

	_, err := NewVerifyCache(rdb, time.Minute).IsVerified(context.Background(), "tx1", "fp")
	assert.EqualError(t, err, "connection refused")
}
