package ordernumber

import (
	"context"
	"errors"
	"testing"
	"time"

	"shoporder/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	values  map[string]int64
	ttls    map[string]time.Duration
	failing bool
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{values: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	if f.failing {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	f.values[key]++
	cmd.SetVal(f.values[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key, ttl)
	f.ttls[key] = ttl
	cmd.SetVal(true)
	return cmd
}

var day = time.Date(2026, 10, 16, 12, 30, 0, 123_000_000, time.UTC)

func TestNext_UsesDailySequence(t *testing.T) {
	store := newFakeCounter()
	g := &Generator{store: store, log: logger.Nop()}
	ctx := context.Background()

	first, err := g.Next(ctx, day)
	require.NoError(t, err)
	second, err := g.Next(ctx, day)
	require.NoError(t, err)
	next, err := g.Next(ctx, day.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "ORD261016000001", first)
	assert.Equal(t, "ORD261016000002", second)
	assert.Equal(t, "ORD261017000001", next)
	assert.Equal(t, sequenceTT, store.ttls["shop:order_seq:261016"])
}

func TestNext_FallsBackToClock(t *testing.T) {
	g := New(nil, nil)
	got, err := g.Next(context.Background(), day)
	require.NoError(t, err)
	assert.Len(t, got, 15)
	assert.Equal(t, "ORD261016", got[:9])

	store := newFakeCounter()
	store.failing = true
	g.store = store
	got2, err := g.Next(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, got, got2)
}
